package repository

import "funding-catalog/internal/domain/entity"

// ContactPartnerFilter narrows contact partner queries.
type ContactPartnerFilter struct {
	// Keyword matches first or last name, case-insensitively.
	Keyword string
}

type ContactPartnerRepository interface {
	Reader[entity.ContactPartner, ContactPartnerFilter]
	Writer[entity.ContactPartner]
}
