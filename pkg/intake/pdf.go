package intake

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"talentscout/pkg/workflow"
)

// ExtractText concatenates the plain text of every page of a PDF document.
func ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = workflow.Wrap(workflow.StageIntake, workflow.KindParse, fmt.Errorf("%v", rec), "could not read PDF")
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", workflow.Wrap(workflow.StageIntake, workflow.KindParse, err, "could not read PDF")
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", workflow.Wrap(workflow.StageIntake, workflow.KindParse, err, fmt.Sprintf("could not read PDF page %d", i))
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

// ExtractTextFromBytes is ExtractText for an in-memory upload.
func ExtractTextFromBytes(data []byte) (string, error) {
	return ExtractText(bytes.NewReader(data), int64(len(data)))
}
