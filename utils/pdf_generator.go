package utils

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"shopbilling/models"
	"shopbilling/repository"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(
	template.New("receipt.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/receipt.html"),
)

// receiptLocation is the shop's timezone for printed dates.
var receiptLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}()

// PDFRenderer turns a complete HTML document into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// BuildReceiptData prepares the template payload for bill.
func BuildReceiptData(shop models.ShopProfile, bill *models.Bill) models.ReceiptPDFData {
	date := "-"
	if !bill.CreatedAt.IsZero() {
		date = bill.CreatedAt.In(receiptLocation).Format("02-Jan-2006 03:04 PM")
	}
	return models.ReceiptPDFData{
		Shop:       shop,
		Bill:       bill,
		Date:       date,
		Total:      bill.TotalAmount.StringFixed(2),
		TotalWords: AmountInWords(bill.TotalAmount),
		ItemCount:  len(bill.Items),
	}
}

func RenderReceiptHTML(data models.ReceiptPDFData) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateReceiptPDF loads bill id and renders its receipt. An unknown id
// returns repository.ErrBillNotFound.
func GenerateReceiptPDF(ctx context.Context, repo *repository.ReceiptRepository, renderer PDFRenderer, id int64) ([]byte, *models.Bill, error) {
	bill, err := repo.GetBillForReceipt(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	html, err := RenderReceiptHTML(BuildReceiptData(repo.GetShopForReceipt(), bill))
	if err != nil {
		return nil, nil, err
	}

	pdf, err := renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, nil, fmt.Errorf("printing receipt pdf: %w", err)
	}
	return pdf, bill, nil
}

// ChromeRenderer prints HTML with headless Chrome. Each call starts its own
// browser; receipts are printed rarely.
type ChromeRenderer struct {
	Timeout time.Duration
}

func (c ChromeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(5.83).  // A5 width
				WithPaperHeight(8.27). // A5 height
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
