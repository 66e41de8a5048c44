package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tailorcv/tailorcv-cli/internal/client/api"
	"github.com/tailorcv/tailorcv-cli/internal/client/workflow"
)

const maxScreenshotBytes = 5 << 20

func screenshotPolicy() workflow.FilePolicy {
	return workflow.FilePolicy{
		AllowedMIMEPrefixes: []string{"image/"},
		MaxSizeBytes:        maxScreenshotBytes,
	}
}

// nowFn is a test seam for the submission timestamp.
var nowFn = time.Now

// openUpgrade runs the premium upgrade screen: collect the payment
// confirmation screenshot and submit it for manual verification. Activation
// happens out of band once the payment is verified.
func (a *App) openUpgrade(ctx context.Context) error {
	s := a.session()
	if s == nil {
		return fmt.Errorf("no active session")
	}
	if s.User.IsPremium {
		fmt.Fprintln(a.out, "You are already on the premium plan.")
		return nil
	}

	w, err := a.newUpgradeWorkflow(s.Token)
	if err != nil {
		return err
	}
	defer w.Close()

	email, err := getSimpleText(a.reader, fmt.Sprintf("Account email [%s]", s.User.Email), a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = s.User.Email
	}
	if err := w.SetField("email", email); err != nil {
		return err
	}
	if err := w.SetField("timestamp", nowFn().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	path, err := getSimpleText(a.reader, "Path to the payment screenshot (image, up to 5 MB)", a.out)
	if err != nil {
		return err
	}
	f, err := loadFile(path)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot read %s: %s\n", path, err)
		return err
	}
	if err := w.SetFile(f); err != nil {
		fmt.Fprintf(a.out, "%s\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Submitting your payment confirmation ...")
	if _, err := w.Submit(ctx); err != nil {
		fmt.Fprintf(a.out, "Submission failed: %s\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Thanks! Your payment is pending verification; premium unlocks once it is confirmed.")
	return nil
}

func (a *App) newUpgradeWorkflow(token string) (*workflow.Workflow, error) {
	return workflow.New(workflow.Config{
		FieldRules: map[string]string{
			"email":     "required,email",
			"timestamp": "required",
		},
		RequireFile: true,
		FilePolicy:  screenshotPolicy(),
		Submit: func(ctx context.Context, fields map[string]string, file *workflow.File) (workflow.Result, error) {
			upload := &api.Upload{
				FieldName:   "screenshot",
				FileName:    file.Name,
				ContentType: file.MIMEType,
				Data:        file.Data,
			}
			if err := a.api.UploadPayment(ctx, token, fields, upload); err != nil {
				return workflow.Result{}, err
			}
			return workflow.Result{}, nil
		},
	})
}
