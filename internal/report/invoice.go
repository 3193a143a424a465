package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/pricing"
)

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"date":  func(ts time.Time) string { return ts.Format("02 Jan 2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: sans-serif; margin: 40px; color: #222; }
  h1 { font-size: 20px; margin-bottom: 0; }
  .meta { color: #666; font-size: 12px; margin-bottom: 24px; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  th, td { border-bottom: 1px solid #ddd; padding: 6px 8px; text-align: left; }
  th { background: #f5f5f5; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 16px; width: 40%; margin-left: auto; font-size: 13px; }
  .totals td { border: none; padding: 3px 8px; }
  .totals .grand td { border-top: 2px solid #222; font-weight: bold; }
</style>
</head>
<body>
  <h1>Invoice</h1>
  <p class="meta">
    Bill {{.Bill.ID}}<br>
    Customer: {{.Bill.CustomerName}}<br>
    Date: {{date .Bill.CreatedAt}}
  </p>
  <table>
    <tr>
      <th>Product</th><th class="num">Qty</th><th class="num">Rate</th>
      <th class="num">Amount</th><th class="num">Commission</th><th>Dealer</th>
    </tr>
    {{range .Bill.Items}}
    <tr>
      <td>{{.ProductName}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{money .Rate}}</td>
      <td class="num">{{money .ItemAmount}}</td>
      <td class="num">{{money .CommissionAmount}} ({{money .CommissionPercent}}%)</td>
      <td>{{.DealerName}}</td>
    </tr>
    {{end}}
  </table>
  <table class="totals">
    <tr><td>Items total</td><td class="num">{{money .Totals.ItemsTotal}}</td></tr>
    <tr><td>Commission total</td><td class="num">{{money .Totals.CommissionTotal}}</td></tr>
    {{if gt .Bill.DiscountPercent 0.0}}
    <tr><td>Discount</td><td class="num">{{money .Bill.DiscountPercent}}%</td></tr>
    {{end}}
    <tr class="grand"><td>Grand total</td><td class="num">{{money .Bill.TotalAmount}}</td></tr>
  </table>
</body>
</html>
`))

type invoiceData struct {
	Bill   billing.Bill
	Totals pricing.Totals
}

// InvoiceHTML renders the invoice document for a bill. The displayed grand
// total is the stored (authoritative) value; the breakdown rows are recomputed
// from the items.
func InvoiceHTML(bill billing.Bill) (string, error) {
	data := invoiceData{
		Bill:   bill,
		Totals: pricing.ComputeBillTotals(bill.LineItems(), bill.DiscountPercent),
	}
	var sb strings.Builder
	if err := invoiceTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return sb.String(), nil
}
