package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"kycflow/domain/approval"
	"kycflow/domain/state"
	"kycflow/event"
)

var ApplicantNotifierName = "applicantNotifier"

type notice struct {
	subject string
	body    *template.Template
}

var notices = map[string]notice{
	state.StatusApproved: {
		subject: "Your identity verification is approved",
		body: template.Must(template.New(state.StatusApproved).Parse(
			`<p>Dear {{.ApplicantName}},</p><p>your identity verification has been approved. No further action is needed.</p>`)),
	},
	state.StatusRejected: {
		subject: "Your identity verification was not approved",
		body: template.Must(template.New(state.StatusRejected).Parse(
			`<p>Dear {{.ApplicantName}},</p><p>we could not approve your identity verification.</p>` +
				`{{if .LastRemarks}}<p>Reason: {{.LastRemarks}}</p>{{end}}`)),
	},
	state.StatusResubmissionRequired: {
		subject: "Action needed on your identity verification",
		body: template.Must(template.New(state.StatusResubmissionRequired).Parse(
			`<p>Dear {{.ApplicantName}},</p><p>your identity verification needs corrections before we can continue.</p>` +
				`{{if .LastRemarks}}<p>Details: {{.LastRemarks}}</p>{{end}}`)),
	},
}

// NotifyApplicantEventHandle mails the applicant when the review reaches an outcome that concerns them
func NotifyApplicantEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != approval.SourceTypeKycWorkflow {
		return nil
	}
	status, _ := e.NewPropertyValue("Status")
	n, found := notices[status]
	if !found {
		return nil
	}

	w, err := approval.LoadWorkflowFunc(context.Background(), e.SourceId)
	if err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("load workflow %d, %v", e.SourceId, err),
			HandlerIdentifier: ApplicantNotifierName}
	}
	if w.ApplicantEmail == "" {
		return &event.EventHandleResult{Success: true, Message: "applicant has no email address",
			HandlerIdentifier: ApplicantNotifierName}
	}

	var body bytes.Buffer
	if err := n.body.Execute(&body, w); err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("render %s notice, %v", status, err),
			HandlerIdentifier: ApplicantNotifierName}
	}
	if err := SendMailFunc([]string{w.ApplicantEmail}, n.subject, body.String()); err != nil {
		return &event.EventHandleResult{Message: fmt.Sprintf("mail %s notice of workflow %d, %v", status, e.SourceId, err),
			HandlerIdentifier: ApplicantNotifierName}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: ApplicantNotifierName}
}
