// Command skmsweb serves the SKMS Accounting & Taxation website and relays
// contact-form submissions to the business by email.
package main

import (
	"context"
	"log"

	"github.com/skms/website/app"
	"github.com/skms/website/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
