package imap

import (
	"strings"
	"testing"

	"github.com/emersion/go-imap"
)

func acceptDocx(name string) bool { return strings.HasSuffix(strings.ToLower(name), ".docx") }

func TestHasDocument(t *testing.T) {
	c := &Connector{accept: acceptDocx}

	withDoc := &imap.BodyStructure{
		MIMEType:    "multipart",
		MIMESubType: "mixed",
		Parts: []*imap.BodyStructure{
			{MIMEType: "text", MIMESubType: "plain"},
			{
				MIMEType:          "application",
				MIMESubType:       "vnd.openxmlformats-officedocument.wordprocessingml.document",
				Disposition:       "attachment",
				DispositionParams: map[string]string{"filename": "Claims.DOCX"},
			},
		},
	}
	if !c.hasDocument(withDoc) {
		t.Fatal("expected docx attachment to be found")
	}

	plain := &imap.BodyStructure{
		MIMEType:    "multipart",
		MIMESubType: "mixed",
		Parts: []*imap.BodyStructure{
			{MIMEType: "text", MIMESubType: "plain"},
			{MIMEType: "image", MIMESubType: "png", Params: map[string]string{"name": "logo.png"}},
		},
	}
	if c.hasDocument(plain) {
		t.Fatal("png attachment should not count")
	}
}

func TestBodyFetchPeeks(t *testing.T) {
	section, items := bodyFetch()
	if !section.Peek {
		t.Fatal("body section must not set \\Seen")
	}
	found := false
	for _, item := range items {
		if item == imap.FetchItem("BODY.PEEK[]") {
			found = true
		}
		if item == imap.FetchItem("BODY[]") {
			t.Fatalf("items request BODY[]: %v", items)
		}
	}
	if !found {
		t.Fatalf("items=%v", items)
	}
}

func TestFormatAddresses(t *testing.T) {
	got := formatAddresses([]*imap.Address{
		{PersonalName: "Records Desk", MailboxName: "records", HostName: "example.com"},
		nil,
		{MailboxName: "intake", HostName: "example.com"},
	})
	if got != "Records Desk <records@example.com>, intake@example.com" {
		t.Fatalf("got %q", got)
	}
}
