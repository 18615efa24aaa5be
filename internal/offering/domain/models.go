package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Offering is a training product that can be enrolled into.
type Offering struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Slug       string          `gorm:"not null;uniqueIndex" json:"slug"`
	Title      string          `gorm:"not null" json:"title"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Currency   string          `gorm:"not null;default:'EUR'" json:"currency"`
	PriceLabel *string         `json:"price_label,omitempty"`
	IsPublic   bool            `gorm:"not null;default:true" json:"is_public"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Offering) TableName() string { return "offerings" }

const priceOnRequest = "Nous consulter"

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

// DisplayPrice renders the price in French, for example "1 200,00 €".
func (o Offering) DisplayPrice() string {
	return o.DisplayPriceIn("fr")
}

// DisplayPriceIn renders the price for lang. An explicit label wins; a zero
// price is quoted on request. Unknown languages render in French.
func (o Offering) DisplayPriceIn(lang string) string {
	if o.PriceLabel != nil {
		if label := strings.TrimSpace(*o.PriceLabel); label != "" {
			return label
		}
	}
	if o.Price.IsZero() {
		return priceOnRequest
	}

	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.French
	}
	base, _ := tag.Base()

	amount := number.Decimal(o.Price.Round(2).InexactFloat64(), number.Scale(2))
	code := strings.ToUpper(strings.TrimSpace(o.Currency))
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code
	}

	if base.String() == "en" {
		return message.NewPrinter(language.English).Sprintf("%s%v", symbol, amount)
	}
	return message.NewPrinter(language.French).Sprintf("%v %s", amount, symbol)
}

// Summary is the read-only projection the wizard carries around.
type Summary struct {
	ID           snowflake.ID `json:"id"`
	Slug         string       `json:"slug"`
	Title        string       `json:"title"`
	DisplayPrice string       `json:"display_price"`
}

func (o Offering) Summary() Summary {
	return o.SummaryIn("fr")
}

// SummaryIn is Summary with the price rendered for lang.
func (o Offering) SummaryIn(lang string) Summary {
	return Summary{
		ID:           o.ID,
		Slug:         o.Slug,
		Title:        o.Title,
		DisplayPrice: o.DisplayPriceIn(lang),
	}
}
