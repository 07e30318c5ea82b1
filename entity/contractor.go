package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrContractorNotFound is returned by repositories when no row matches.
var ErrContractorNotFound = errors.New("contractor not found")

// ContractorType distinguishes the three payment arrangements.
type ContractorType string

const (
	TypeSamozanyaty ContractorType = "самозанятый"
	TypeIP          ContractorType = "ИП"
	TypeGlobal      ContractorType = "global"
)

// Currency of contractor payouts.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
)

// RoleCode marks what the contractor does for the magazine.
type RoleCode string

const (
	RoleAuthor    RoleCode = "A"
	RoleRedaktor  RoleCode = "R"
	RoleKorrektor RoleCode = "K"
)

// Contractor is one row of the contractor sheet. A single struct covers all
// three types; RequiredFields says which fields each type must fill.
type Contractor struct {
	ID               string         `json:"id" bson:"id" validate:"required"`
	Type             ContractorType `json:"type" bson:"type" validate:"required"`
	Aliases          []string       `json:"aliases" bson:"aliases"`
	RoleCode         RoleCode       `json:"role_code" bson:"role_code"`
	Email            string         `json:"email" bson:"email" validate:"omitempty,email"`
	NameRU           string         `json:"name_ru" bson:"name_ru"`
	NameEN           string         `json:"name_en" bson:"name_en"`
	Address          string         `json:"address" bson:"address"`
	Phone            string         `json:"phone" bson:"phone"`
	BankName         string         `json:"bank_name" bson:"bank_name"`
	BankAccount      string         `json:"bank_account" bson:"bank_account"`
	Swift            string         `json:"swift" bson:"swift"`
	Bik              string         `json:"bik" bson:"bik"`
	CorrAccount      string         `json:"corr_account" bson:"corr_account"`
	Inn              string         `json:"inn" bson:"inn"`
	Ogrnip           string         `json:"ogrnip" bson:"ogrnip"`
	PassportSeries   string         `json:"passport_series" bson:"passport_series"`
	PassportNumber   string         `json:"passport_number" bson:"passport_number"`
	PassportIssuedBy string         `json:"passport_issued_by" bson:"passport_issued_by"`
	Mags             string         `json:"mags" bson:"mags"`
	InvoiceNumber    int            `json:"invoice_number" bson:"invoice_number"`
	Telegram         string         `json:"telegram" bson:"telegram"`
	SecretCode       string         `json:"secret_code" bson:"secret_code"`
}

// FieldMeta describes one user-facing contractor field for a given type.
type FieldMeta struct {
	Name  string
	Label string
}

var requiredFieldsByType = map[ContractorType][]FieldMeta{
	TypeGlobal: {
		{"name_en", "полное имя (латиницей)"},
		{"address", "адрес"},
		{"bank_name", "название банка"},
		{"bank_account", "IBAN / номер счёта"},
		{"swift", "BIC/SWIFT"},
	},
	TypeIP: {
		{"name_ru", "ФИО"},
		{"ogrnip", "ОГРНИП"},
		{"passport_series", "серия паспорта"},
		{"passport_number", "номер паспорта"},
		{"email", "email"},
		{"bank_name", "банк"},
		{"bank_account", "номер счёта"},
		{"bik", "БИК"},
		{"corr_account", "корр. счёт"},
	},
	TypeSamozanyaty: {
		{"name_ru", "ФИО"},
		{"passport_series", "серия паспорта"},
		{"passport_number", "номер паспорта"},
		{"inn", "ИНН"},
		{"address", "адрес"},
		{"email", "email"},
		{"bank_name", "банк"},
		{"bank_account", "номер счёта"},
		{"bik", "БИК"},
		{"corr_account", "корр. счёт"},
	},
}

// RequiredFields returns the registration fields for a contractor type.
func RequiredFields(t ContractorType) []FieldMeta {
	return requiredFieldsByType[t]
}

// FieldNames returns just the field names, for LLM extraction prompts.
func FieldNames(t ContractorType) []string {
	metas := requiredFieldsByType[t]
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	return names
}

// Currency returns the payout currency for the contractor's type.
func (c *Contractor) Currency() Currency {
	if c.Type == TypeGlobal {
		return CurrencyEUR
	}
	return CurrencyRUB
}

// DisplayName prefers the localized full name over the sheet id.
func (c *Contractor) DisplayName() string {
	switch {
	case c.Type == TypeGlobal && c.NameEN != "":
		return c.NameEN
	case c.NameRU != "":
		return c.NameRU
	default:
		return c.ID
	}
}

// AllNames returns every name the contractor is known by, for fuzzy lookup.
func (c *Contractor) AllNames() []string {
	var names []string
	if c.NameRU != "" {
		names = append(names, c.NameRU)
	}
	if c.NameEN != "" {
		names = append(names, c.NameEN)
	}
	return append(names, c.Aliases...)
}

// SetField assigns a registration field by its sheet name.
func (c *Contractor) SetField(name, value string) error {
	switch name {
	case "name_ru":
		c.NameRU = value
	case "name_en":
		c.NameEN = value
	case "address":
		c.Address = value
	case "phone":
		c.Phone = value
	case "email":
		c.Email = value
	case "bank_name":
		c.BankName = value
	case "bank_account":
		c.BankAccount = value
	case "swift":
		c.Swift = value
	case "bik":
		c.Bik = value
	case "corr_account":
		c.CorrAccount = value
	case "inn":
		c.Inn = value
	case "ogrnip":
		c.Ogrnip = value
	case "passport_series":
		c.PassportSeries = value
	case "passport_number":
		c.PassportNumber = value
	case "passport_issued_by":
		c.PassportIssuedBy = value
	default:
		return fmt.Errorf("unknown contractor field: %s", name)
	}
	return nil
}

// Field reads a registration field by its sheet name.
func (c *Contractor) Field(name string) string {
	switch name {
	case "name_ru":
		return c.NameRU
	case "name_en":
		return c.NameEN
	case "address":
		return c.Address
	case "phone":
		return c.Phone
	case "email":
		return c.Email
	case "bank_name":
		return c.BankName
	case "bank_account":
		return c.BankAccount
	case "swift":
		return c.Swift
	case "bik":
		return c.Bik
	case "corr_account":
		return c.CorrAccount
	case "inn":
		return c.Inn
	case "ogrnip":
		return c.Ogrnip
	case "passport_series":
		return c.PassportSeries
	case "passport_number":
		return c.PassportNumber
	case "passport_issued_by":
		return c.PassportIssuedBy
	default:
		return ""
	}
}

var validate = validator.New()

// Validate checks struct tags plus the per-type required field list.
// Returns the labels of missing fields so handlers can prompt for them.
// ID is excluded: repositories assign it on save.
func (c *Contractor) Validate() (missing []string, err error) {
	if err := validate.StructExcept(c, "ID"); err != nil {
		return nil, err
	}
	for _, meta := range requiredFieldsByType[c.Type] {
		if strings.TrimSpace(c.Field(meta.Name)) == "" {
			missing = append(missing, meta.Label)
		}
	}
	return missing, nil
}
