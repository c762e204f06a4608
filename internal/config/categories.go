package config

import "portfolio-gallery/internal/domain"

// DefaultCategories is the built-in category table. Folder ids are
// supplied per slug through gallery.folders.
var DefaultCategories = []domain.CategoryFolderMapping{
	{Slug: "portraits", Title: "Portraits", Description: "People, in studio and on location", Order: 1},
	{Slug: "weddings", Title: "Weddings", Description: "Ceremonies and celebrations", Order: 2},
	{Slug: "events", Title: "Events", Description: "Concerts, conferences and parties", Order: 3},
	{Slug: "landscapes", Title: "Landscapes", Description: "Mountains, coastlines and cities", Order: 4},
	{Slug: "street", Title: "Street", Description: "Everyday moments", Order: 5},
}
