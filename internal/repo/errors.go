package repo

import "errors"

var (
	// ErrProductNotFound is returned when a product is not found in the repository.
	ErrProductNotFound = errors.New("product not found")

	ErrCategoryNotFound = errors.New("category not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrDuplicatedValueUnique maps unique-constraint violations (product name,
	// category name, username, email).
	ErrDuplicatedValueUnique = errors.New("duplicated value on unique column")

	// ErrInsufficientStock is returned when a sale would drive stock negative.
	// The conditional update guarantees no partial mutation happened.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyReversed is returned when reversing a ledger entry whose
	// reversal flag is already set.
	ErrAlreadyReversed = errors.New("sale already reversed")

	// ErrNotOwner is returned when a non-admin tries to reverse someone
	// else's ledger entry.
	ErrNotOwner = errors.New("caller is not the sale operator")

	// ErrCategoryInUse guards category deletion while products reference it.
	ErrCategoryInUse = errors.New("category has products")

	// ErrLastAdmin guards deleting, demoting or deactivating the last
	// remaining active admin.
	ErrLastAdmin = errors.New("cannot remove the last active admin")

	// ErrProductHasSales guards product deletion while ledger rows reference it.
	ErrProductHasSales = errors.New("product has ledger entries")

	ErrInvalidQuantity = errors.New("quantity must be positive")
)
