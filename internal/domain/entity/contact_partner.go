package entity

// ContactPartner is the person applicants can reach out to about an article.
type ContactPartner struct {
	ID          ID[ContactPartner]
	FirstName   string
	LastName    string
	PhoneNumber string
	URL         string
}

// WithID returns a copy of c carrying the given key.
func (c ContactPartner) WithID(id ID[ContactPartner]) ContactPartner {
	c.ID = id
	return c
}
