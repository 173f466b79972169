package repo

type ProductFilter struct {
	Keyword    string
	CategoryID *int
	Offset     *int
	Limit      *int
}
