package notify

import (
	"context"
	"fmt"
	"log"

	"procurement-backoffice/internal/domain/document"
)

// BlobFetcher resolves a stored document URL back to its bytes so the PDF
// can ride along as an email attachment.
type BlobFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Dispatcher builds and sends the workflow emails. It implements
// workflow.Notifier; callers treat its errors as non-fatal.
type Dispatcher struct {
	mailer  *Mailer
	blobs   BlobFetcher
	baseURL string
}

// NewDispatcher wires the mailer. baseURL is the public origin the email
// action links are rooted at, without a trailing slash.
func NewDispatcher(mailer *Mailer, blobs BlobFetcher, baseURL string) *Dispatcher {
	return &Dispatcher{mailer: mailer, blobs: blobs, baseURL: baseURL}
}

func (n *Dispatcher) DocumentSubmitted(ctx context.Context, d *document.Document, approveToken, rejectToken string) error {
	if d.AssignedApproverEmail == "" {
		return fmt.Errorf("document %s has no approver email", d.DocumentID)
	}
	approveURL := n.actionURL(d.Kind, "email-approve", approveToken)
	rejectURL := n.actionURL(d.Kind, "email-reject", rejectToken)

	subject := fmt.Sprintf("%s %q awaiting your approval", d.Kind.Label(), d.Title)
	body := fmt.Sprintf(`<html><body>
<p>A %s has been submitted for your approval.</p>
<p><b>%s</b> (ref %s), amount %.2f, submitted by %s.</p>
<p>
  <a href="%s" style="padding:10px 18px;background:#147d42;color:#fff;text-decoration:none;">Approve</a>
  &nbsp;
  <a href="%s" style="padding:10px 18px;background:#b3261e;color:#fff;text-decoration:none;">Reject</a>
</p>
<p>The links are valid for a limited time and can be used without signing in.</p>
</body></html>`,
		d.Kind.Label(), d.Title, d.Reference, d.Amount, d.CreatorID, approveURL, rejectURL)

	return n.mailer.Send([]string{d.AssignedApproverEmail}, subject, body, n.fetchPDF(ctx, d), d.DocumentID+".pdf")
}

func (n *Dispatcher) DocumentResolved(ctx context.Context, d *document.Document) error {
	if d.CreatorEmail == "" {
		return fmt.Errorf("document %s has no creator email", d.DocumentID)
	}
	var subject, note string
	switch d.Status {
	case document.StatusApproved:
		subject = fmt.Sprintf("%s %q approved", d.Kind.Label(), d.Title)
		note = d.ApprovalComments()
	case document.StatusRejected:
		subject = fmt.Sprintf("%s %q rejected", d.Kind.Label(), d.Title)
		note = d.RejectionReason()
	default:
		return fmt.Errorf("document %s is not resolved (status %s)", d.DocumentID, d.Status)
	}
	body := fmt.Sprintf(`<html><body>
<p>Your %s <b>%s</b> (ref %s) is now <b>%s</b>.</p>
<p>%s</p>
</body></html>`, d.Kind.Label(), d.Title, d.Reference, d.Status, note)

	return n.mailer.Send([]string{d.CreatorEmail}, subject, body, n.fetchPDF(ctx, d), d.DocumentID+".pdf")
}

func (n *Dispatcher) actionURL(kind document.Kind, action, tok string) string {
	return n.baseURL + "/" + kind.RoutePrefix() + "/" + action + "/" + tok
}

// fetchPDF is best-effort; an email without the attachment still carries the
// action links.
func (n *Dispatcher) fetchPDF(ctx context.Context, d *document.Document) []byte {
	if n.blobs == nil || d.DocumentURL == "" {
		return nil
	}
	data, err := n.blobs.Fetch(ctx, d.DocumentURL)
	if err != nil {
		log.Printf("notify: fetching attachment for %s failed: %v", d.DocumentID, err)
		return nil
	}
	return data
}
