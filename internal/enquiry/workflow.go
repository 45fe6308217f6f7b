package enquiry

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
)

// transitions lists the admin moves allowed from each status. Terminal
// statuses have none; leaving them takes an explicit reopen.
var transitions = map[models.EnquiryStatus][]models.EnquiryStatus{
	models.EnquiryNew:              {models.EnquiryInProgress, models.EnquirySpam},
	models.EnquiryInProgress:       {models.EnquiryAwaitingCustomer, models.EnquiryClosed},
	models.EnquiryAwaitingCustomer: {models.EnquiryInProgress, models.EnquiryClosed},
}

// CanTransition reports whether an admin may move an enquiry from one status
// to another. Staying put is always allowed.
func CanTransition(from, to models.EnquiryStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.EnquiryStatus) error {
	if !to.Valid() {
		return apperr.Validationf("unknown status %q", to)
	}
	if CanTransition(from, to) {
		return nil
	}
	msg := fmt.Sprintf("cannot move an enquiry from %s to %s", from, to)
	if from.Terminal() {
		msg += "; reopen it first"
	}
	return apperr.New(apperr.KindConflict, apperr.CodeInvalidTransition, msg, nil).
		WithDetails(map[string]interface{}{"from": from, "to": to, "allowed": transitions[from]})
}

// WhomWeServe is the source of the business-segment landing page.
const WhomWeServe = "whom-we-serve"

// DerivePriority elevates business enquiries from the segment landing page.
func DerivePriority(source string, userType models.UserType) models.EnquiryPriority {
	if source == WhomWeServe && userType == models.UserBusiness {
		return models.PriorityHigh
	}
	return models.PriorityNormal
}

func DeriveType(lines int) models.EnquiryType {
	if lines > 0 {
		return models.EnquiryCartPlusEnquiry
	}
	return models.EnquiryOnly
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewNumber returns a short human id such as ENQ-MB3K2Q1Z-7F2A. The middle
// part is the creation time in base 36, so ids sort by age.
func NewNumber(now time.Time) string {
	var suffix strings.Builder
	for i := 0; i < 4; i++ {
		suffix.WriteByte(base36[rand.IntN(len(base36))])
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "ENQ-" + stamp + "-" + suffix.String()
}

// placeholders back-fills contact fields left empty by anonymous submissions.
func placeholders(name, email, phone string) (string, string) {
	digits := digitsOf(phone)
	if name == "" {
		name = "Guest " + phone
	}
	if email == "" {
		email = digits + "@guest.invalid"
	}
	return name, email
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
