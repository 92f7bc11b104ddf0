package report

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the run as a printable single-document PDF at path.
// It walks the same sections as Render but drops the unicode status
// marks, which the core PDF fonts cannot encode.
func (r *Run) WritePDF(path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	pdf.AddPage()

	heading := func(s string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, tr(s), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
	}
	body := func(s string) {
		pdf.MultiCell(0, 5, tr(s), "", "L", false)
	}
	mono := func(s string) {
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 4.5, tr(s), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 9, tr(r.Title), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	body("Date: " + r.Date.Format("2006-01-02 15:04:05"))
	pdf.Ln(3)

	if r.Status == StatusInputError {
		heading("Error")
		body(r.Reason)
		return pdf.OutputFileAndClose(path)
	}

	heading("Input Parameters")
	for _, line := range r.Inputs.bullets() {
		body(line)
	}
	pdf.Ln(2)

	heading("Processing")
	mono(strings.Join(r.Command, " "))
	pdf.Ln(2)

	switch r.Status {
	case StatusToolError:
		heading(fmt.Sprintf("ASHLAR failed with exit code %d", r.ExitCode))
		if r.Stderr != "" {
			mono(r.Stderr)
		}
	case StatusLaunchError:
		heading("Run failed")
		body(r.LaunchErr)
	default:
		body("ASHLAR completed successfully.")
		if r.Stdout != "" {
			pdf.Ln(2)
			heading("ASHLAR Output")
			mono(r.Stdout)
		}
		if r.OutputSize >= 0 {
			pdf.Ln(2)
			heading("Results")
			body("Output file: " + r.OutputPath)
			body(fmt.Sprintf("File size: %.2f MB", r.SizeMiB()))
		}
		pdf.Ln(2)
		heading("Conclusion")
		body("Image stitching and registration completed successfully.")
		body("Registered image saved to: " + r.OutputPath)
	}
	return pdf.OutputFileAndClose(path)
}
