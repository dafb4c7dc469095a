package kyc

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	Upload(docType, filename string, content []byte) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// pngHeader is enough for content sniffing to classify the upload as PNG.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// RegisterSteps registers onboarding workflow step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &kycSteps{tc: tc}

	ctx.Step(`^I upload a "([^"]*)" document$`, steps.uploadDocument)
	ctx.Step(`^I upload a "([^"]*)" document (\d+) times$`, steps.uploadDocumentTimes)
	ctx.Step(`^I upload a text file as "([^"]*)"$`, steps.uploadTextFile)
	ctx.Step(`^I submit personal details for "([^"]*)"$`, steps.submitPersonalDetails)
	ctx.Step(`^I select the "([^"]*)" document "([^"]*)" numbered "([^"]*)"$`, steps.selectDocument)
	ctx.Step(`^I complete my application$`, steps.complete)
	ctx.Step(`^I request a photo match$`, steps.photoMatch)
}

type kycSteps struct {
	tc TestContext
}

func (s *kycSteps) uploadDocument(ctx context.Context, docType string) error {
	return s.tc.Upload(docType, "document.png", pngHeader)
}

// uploadDocumentTimes fails fast if any upload before the last is rejected.
func (s *kycSteps) uploadDocumentTimes(ctx context.Context, docType string, n int) error {
	for i := 1; i <= n; i++ {
		if err := s.uploadDocument(ctx, docType); err != nil {
			return err
		}
		if i < n && s.tc.GetLastResponseStatus() != 200 {
			return fmt.Errorf("upload %d returned %d: %s", i, s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
		}
	}
	return nil
}

func (s *kycSteps) uploadTextFile(ctx context.Context, docType string) error {
	return s.tc.Upload(docType, "notes.txt", []byte("plain text is not a document"))
}

func (s *kycSteps) submitPersonalDetails(ctx context.Context, fullName string) error {
	return s.tc.PUT("/kyc/personal-details", map[string]string{
		"fullName":   fullName,
		"dob":        "1990-04-12",
		"fatherName": "Ravi Kumar",
		"address":    "12 MG Road",
		"city":       "Pune",
		"pincode":    "411001",
	})
}

func (s *kycSteps) selectDocument(ctx context.Context, category, kind, number string) error {
	return s.tc.PUT("/kyc/document-selection", map[string]string{
		"category": category,
		"kind":     kind,
		"number":   number,
	})
}

func (s *kycSteps) complete(ctx context.Context) error {
	return s.tc.POST("/kyc/complete", nil)
}

func (s *kycSteps) photoMatch(ctx context.Context) error {
	return s.tc.POST("/kyc/photo-match", nil)
}
