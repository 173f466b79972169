package repo

import "time"

type SaleFilter struct {
	ProductID       *int
	Type            string
	Since           *time.Time
	Until           *time.Time
	IncludeReversed bool
	Offset          *int
	Limit           *int

	// Unlimited disables the page cap entirely. Listings always page;
	// exports set this so the result covers every matching row.
	Unlimited bool
}
