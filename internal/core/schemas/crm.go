package schemas

import (
	"github.com/JonMunkholm/importme/internal/core"
)

func init() {
	registerContacts()
	registerAddresses()
}

func registerContacts() {
	core.Register(core.Schema{
		Key:   "contacts",
		Group: "CRM",
		Label: "Contacts",
		Config: core.Config{
			HeaderRows:    1,
			SkipEmptyRows: true,
			AddRowIndex:   true,
			Columns: []core.Column{
				{Name: "contact_id", Index: 0, Required: true, Clean: core.UUID},
				{Name: "name", Index: 1, Required: true, Clean: core.String, Validators: []core.Validator{core.MaxLength(200)}},
				{Name: "email", Index: 2, Required: true, Clean: core.Email},
				{Name: "age", Index: 3, Clean: core.Int, Validators: []core.Validator{core.Range(0, 150)}},
				{Name: "subscribed", Index: 4, Default: false, Clean: core.Bool},
				{Name: "created_on", Index: 5, Clean: core.Date},
			},
			UniqueTogether: [][]string{{"contact_id"}, {"email"}},
		},
	})
}

func registerAddresses() {
	core.Register(core.Schema{
		Key:   "addresses",
		Group: "CRM",
		Label: "Addresses",
		Config: core.Config{
			HeaderRows:    1,
			SkipEmptyRows: true,
			AddRowIndex:   true,
			Columns: []core.Column{
				{Name: "contact_id", Index: 0, Required: true, Clean: core.UUID},
				{Name: "street", Index: 1, Required: true, Clean: core.String},
				{Name: "city", Index: 2, Required: true, Clean: core.String},
				{Name: "state", Index: 3, Required: true, Clean: UsState},
				{Name: "zip", Index: 4, Required: true, Clean: core.String, Validators: []core.Validator{core.Match(zipPattern)}},
				{Name: "kind", Index: 5, Default: "home", Clean: core.String, Validators: []core.Validator{core.OneOf("home", "work", "billing", "shipping")}},
			},
			UniqueTogether: [][]string{{"contact_id", "kind"}},
		},
	})
}
