package cli

import (
	"context"
	"fmt"

	"github.com/tailorcv/tailorcv-cli/internal/client/api"
	"github.com/tailorcv/tailorcv-cli/internal/client/workflow"
	"github.com/tailorcv/tailorcv-cli/internal/filex"
	"github.com/tailorcv/tailorcv-cli/internal/netx"
)

const maxResumeBytes = 10 << 20

func resumePolicy() workflow.FilePolicy {
	return workflow.FilePolicy{
		AllowedMIMEPrefixes: []string{"application/pdf"},
		MaxSizeBytes:        maxResumeBytes,
	}
}

// openGenerate runs the resume generation screen: collect the job
// description, pick the background source (an uploaded resume or profile
// details), submit, and offer to download the generated document.
func (a *App) openGenerate(ctx context.Context) error {
	s := a.session()
	if s == nil {
		return fmt.Errorf("no active session")
	}
	token := s.Token

	jobDescription, err := getMultiline(a.reader, "Paste the job description", a.out)
	if err != nil {
		return err
	}

	method, err := getSimpleText(a.reader, "Use a resume (f)ile or your (p)rofile? [f/p]", a.out)
	if err != nil {
		return err
	}

	w, err := a.newGenerateWorkflow(token, method == "p")
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.SetField("jobDescription", jobDescription); err != nil {
		return err
	}

	if method == "p" {
		if err := a.fillProfileFields(w, s.User.Email); err != nil {
			return err
		}
	} else {
		if err := a.attachResume(w); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.out, "Generating your tailored resume ...")
	res, err := w.Submit(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Generation failed: %s\n", err)
		return err
	}

	fmt.Fprintf(a.out, "Done! Your resume is ready at:\n  %s\n", res.Reference)
	return a.offerDownload(ctx, res.Reference)
}

func (a *App) newGenerateWorkflow(token string, profile bool) (*workflow.Workflow, error) {
	cfg := workflow.Config{
		FieldRules: map[string]string{"jobDescription": "required"},
		Submit: func(ctx context.Context, fields map[string]string, file *workflow.File) (workflow.Result, error) {
			var upload *api.Upload
			if file != nil {
				upload = &api.Upload{
					FieldName:   "resume",
					FileName:    file.Name,
					ContentType: file.MIMEType,
					Data:        file.Data,
				}
			}
			url, err := a.api.GenerateResume(ctx, token, fields, upload)
			if err != nil {
				return workflow.Result{}, err
			}
			return workflow.Result{Reference: url}, nil
		},
	}

	if profile {
		cfg.FieldRules["email"] = "omitempty,email"
		cfg.FieldRules["linkedinUrl"] = "required,url"
	} else {
		cfg.RequireFile = true
		cfg.FilePolicy = resumePolicy()
	}

	return workflow.New(cfg)
}

func (a *App) fillProfileFields(w *workflow.Workflow, defaultEmail string) error {
	email, err := getSimpleText(a.reader, fmt.Sprintf("Email [%s]", defaultEmail), a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = defaultEmail
	}
	if err := w.SetField("email", email); err != nil {
		return err
	}

	linkedin, err := getSimpleText(a.reader, "LinkedIn profile URL", a.out)
	if err != nil {
		return err
	}
	return w.SetField("linkedinUrl", linkedin)
}

func (a *App) attachResume(w *workflow.Workflow) error {
	path, err := getSimpleText(a.reader, "Path to your resume (PDF, up to 10 MB)", a.out)
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
	return nil
}

func (a *App) offerDownload(ctx context.Context, url string) error {
	answer, err := getSimpleText(a.reader, "Download it now? [y/n]", a.out)
	if err != nil || answer != "y" {
		return err
	}

	dir, err := filex.EnsureDir(a.config.DownloadDir)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot prepare download directory: %s\n", err)
		return err
	}
	dest, err := netx.DownloadFile(ctx, url, dir)
	if err != nil {
		fmt.Fprintf(a.out, "Download failed: %s\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", dest)
	return nil
}
