// internal/app/features/contact/business.go
package contact

// Fixed business details shown in error messages and the acknowledgement.
const (
	BusinessName    = "SKMS Accounting & Taxation"
	BusinessEmail   = "anaidoo.skms@gmail.com"
	BusinessPhone   = "+27 65 895 4832"
	BusinessAddress = "Esselmont Avenue, Essenwood, Durban, KZN 4001"
)

// BusinessHours lists opening hours, one line per day range.
var BusinessHours = []string{
	"Monday - Friday: 8:00 AM - 6:00 PM",
	"Saturday: 9:00 AM - 2:00 PM",
	"Sunday: Closed",
}

// Display names used in the From header.
const (
	notificationFromName    = "SKMS Website Contact"
	acknowledgementFromName = BusinessName
)
