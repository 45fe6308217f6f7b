package services

import (
	"net/url"
	"strings"
	"unicode"
)

// WhatsAppLink builds the click-to-chat deep link for phone. Non-digits are
// stripped; an empty phone yields an empty link.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if message != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	}
	return link
}

// EnquiryMessage is the prefilled text the storefront sends over WhatsApp.
func EnquiryMessage(number, name string) string {
	return "Hello, I just sent enquiry " + number + " (" + name + ")."
}
