// internal/app/bootstrap/deps.go
package bootstrap

import "github.com/skms/website/internal/app/mailer"

// Deps holds the outbound dependencies built at startup.
// Transport is nil when mail credentials are missing (dev only).
type Deps struct {
	Transport mailer.Transport
}
