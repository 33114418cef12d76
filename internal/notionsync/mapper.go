package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"cloud.google.com/go/civil"

	"github.com/nkoval/finledger/internal/ledger"
)

// Property names in the target Notion databases. The transaction database
// keys its rows by the ledger transaction id, the accounts database by the
// account id; the syncer uses those to tell current pages from stale ones.
const (
	propTransactionID = "Transaction ID"
	propAccountID     = "Account ID"
)

// transactionProperties maps one ledger transaction onto Notion properties.
// The amount is exported signed so expense rows read negative in Notion.
func transactionProperties(t *ledger.Transaction) notionapi.Properties {
	amount, _ := t.Direction.Signed(t.Amount).Float64()

	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: richText(t.Description),
		},
		propTransactionID: notionapi.RichTextProperty{
			RichText: richText(t.TransactionID),
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDate(t.Date),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Direction": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(t.Direction)},
		},
		propAccountID: notionapi.RichTextProperty{
			RichText: richText(t.AccountID),
		},
	}

	if t.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: t.Currency},
		}
	}
	if t.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: t.Category},
		}
	}
	if t.Reference != "" {
		props["Reference"] = notionapi.RichTextProperty{
			RichText: richText(t.Reference),
		}
	}
	return props
}

// accountProperties maps one account onto Notion properties.
func accountProperties(a *ledger.Account) notionapi.Properties {
	balance, _ := a.Balance.Float64()

	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(a.Name),
		},
		propAccountID: notionapi.RichTextProperty{
			RichText: richText(a.AccountID),
		},
		"Currency": notionapi.SelectProperty{
			Select: notionapi.Option{Name: a.Currency},
		},
		"Balance": notionapi.NumberProperty{
			Number: balance,
		},
	}
}

// pageKey pulls a rich-text key property back out of a page. Empty when the
// property is missing or not rich text, which marks the page as stale.
func pageKey(page notionapi.Page, property string) string {
	prop, ok := page.Properties[property]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func notionDate(d civil.Date) *notionapi.Date {
	nd := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return &nd
}
