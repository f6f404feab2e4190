package main

import (
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/htmltext"
)

const (
	titleWidth   = 36
	summaryWidth = 48
	labelWidth   = 14
)

// printTable renders rows with every column padded to its widest cell.
// Widths are measured with go-runewidth so wide runes in titles do not
// break the alignment.
func printTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	divider := make([]string, len(headers))
	for i := range divider {
		divider[i] = strings.Repeat("-", widths[i])
	}
	printRow(divider)
	for _, row := range rows {
		printRow(row)
	}
}

func printKV(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %s  %s\n", runewidth.FillRight(label, labelWidth), value)
}

func summarize(html string, max int) string {
	return htmltext.Summary(html, max)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

// moneyFormatter renders the platform's decimal amount strings in the
// shop's currency ("54.99" to "$54.99" for USD). Unknown currencies and
// unparseable amounts fall back to the raw wire string.
func moneyFormatter(code string) func(string) string {
	printer := message.NewPrinter(language.AmericanEnglish)
	unit, unitErr := currency.ParseISO(code)
	return func(amount string) string {
		if amount == "" {
			return ""
		}
		value, err := strconv.ParseFloat(amount, 64)
		if err != nil || unitErr != nil {
			if code == "" {
				return amount
			}
			return amount + " " + code
		}
		return printer.Sprintf("%v", currency.Symbol(unit.Amount(value)))
	}
}

func printProductTable(products []catalog.Product, currencyCode string) {
	if len(products) == 0 {
		fmt.Println("No products.")
		return
	}
	money := moneyFormatter(currencyCode)
	rows := make([][]string, 0, len(products))
	for i := range products {
		p := &products[i]
		rows = append(rows, []string{
			p.ID,
			runewidth.Truncate(p.Title, titleWidth, "..."),
			p.ProductType,
			p.Vendor,
			priceRange(p, money),
			summarize(p.BodyHTML, summaryWidth),
		})
	}
	printTable([]string{"ID", "TITLE", "TYPE", "VENDOR", "PRICE", "DESCRIPTION"}, rows)
}

// priceRange summarizes a product's variant prices as a single price or a
// low-to-high span.
func priceRange(p *catalog.Product, money func(string) string) string {
	if len(p.Variants) == 0 {
		return ""
	}
	low, high := p.Variants[0].Price, p.Variants[0].Price
	lowF, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return money(low)
	}
	highF := lowF
	for _, v := range p.Variants[1:] {
		f, err := strconv.ParseFloat(v.Price, 64)
		if err != nil {
			continue
		}
		if f < lowF {
			lowF, low = f, v.Price
		}
		if f > highF {
			highF, high = f, v.Price
		}
	}
	if low == high {
		return money(low)
	}
	return money(low) + " - " + money(high)
}

func printProductDetail(p *catalog.Product, currencyCode string) {
	money := moneyFormatter(currencyCode)

	fmt.Println(p.Title)
	printKV("ID", p.ID)
	printKV("Handle", p.Handle)
	printKV("Vendor", p.Vendor)
	printKV("Type", p.ProductType)
	printKV("Tags", strings.Join(p.TagSet.Values(), ", "))
	if !p.Available {
		printKV("Availability", "sold out")
	}
	for _, opt := range p.Options {
		printKV(opt.Name, joinOr(opt.Values, ""))
	}

	if p.BodyHTML != "" {
		body, err := htmltomarkdown.ConvertString(p.BodyHTML)
		if err != nil {
			body = htmltext.Strip(p.BodyHTML)
		}
		fmt.Println()
		fmt.Println(strings.TrimSpace(body))
	}

	if len(p.Variants) > 0 {
		fmt.Println()
		rows := make([][]string, 0, len(p.Variants))
		for i := range p.Variants {
			v := &p.Variants[i]
			stock := "yes"
			if !v.Available {
				stock = "no"
			}
			image := ""
			if img := p.ImageForVariant(v); img != nil {
				image = img.Src
			}
			rows = append(rows, []string{
				strconv.FormatInt(v.ID, 10),
				v.Title,
				v.SKU,
				money(v.Price),
				stock,
				image,
			})
		}
		printTable([]string{"VARIANT", "TITLE", "SKU", "PRICE", "IN STOCK", "IMAGE"}, rows)
	}
}

func printReceipt(co *checkout.Checkout, currencyCode string) {
	money := moneyFormatter(currencyCode)

	fmt.Println()
	fmt.Printf("Receipt for checkout %s\n", co.Token)

	rows := make([][]string, 0, len(co.LineItems))
	for _, li := range co.LineItems {
		title := li.Title
		if li.VariantTitle != "" && li.VariantTitle != "Default Title" {
			title += " (" + li.VariantTitle + ")"
		}
		rows = append(rows, []string{
			title,
			strconv.Itoa(li.Quantity),
			money(li.Price),
			money(li.LinePrice),
		})
	}
	printTable([]string{"ITEM", "QTY", "PRICE", "LINE"}, rows)

	fmt.Println()
	printKV("Subtotal", money(co.SubtotalPrice))
	if co.Discount != nil && co.Discount.Applicable {
		printKV("Discount", "-"+money(co.Discount.Amount)+" ("+co.Discount.Code+")")
	}
	for _, tl := range co.TaxLines {
		printKV(tl.Title, money(tl.Price))
	}
	if co.ShippingRate != nil {
		printKV("Shipping", money(co.ShippingRate.Price)+" ("+co.ShippingRate.Title+")")
	}
	printKV("Total", money(co.TotalPrice))
	for _, gc := range co.GiftCards {
		printKV("Gift card", "-"+money(gc.AmountUsed)+" (ending "+gc.LastCharacters+")")
	}
	printKV("Payment due", money(co.PaymentDue))
	if co.ReservationTimeLeft > 0 {
		printKV("Reserved for", strconv.FormatInt(co.ReservationTimeLeft, 10)+"s")
	}
	if co.WebURL != "" {
		fmt.Println()
		fmt.Printf("Complete payment at: %s\n", co.WebURL)
	}
}
