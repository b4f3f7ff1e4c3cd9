package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"nydb/internal"
	"nydb/internal/config"
)

// Connector downloads unseen messages that carry at least one attachment accepted by
// the document filter.
type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	markSeen bool
	accept   func(filename string) bool
}

func NewConnector(cfg config.Config, accept func(filename string) bool) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
		accept:   accept,
	}, nil
}

// FetchInbox leaves the \Seen flag alone unless mark-seen is configured.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	if _, err := client.Select(label, false); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := client.Search(criteria)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > max {
		ids = ids[len(ids)-max:]
	}

	withDocs, err := c.messagesWithDocuments(client, ids)
	if err != nil {
		return nil, err
	}
	if len(withDocs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(withDocs...)

	section, items := bodyFetch()
	messages := make(chan *imap.Message, len(withDocs))
	fetchDone := make(chan error, 1)
	go func() { fetchDone <- client.Fetch(seqset, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, len(withDocs))
	for msg := range messages {
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		out = append(out, toFetched(msg, raw))
	}
	if err := <-fetchDone; err != nil {
		return nil, err
	}

	if c.markSeen {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := client.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// bodyFetch requests the full message with BODY.PEEK[] so downloading never sets \Seen.
func bodyFetch() (*imap.BodySectionName, []imap.FetchItem) {
	section := &imap.BodySectionName{Peek: true}
	return section, []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
}

func (c *Connector) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	if err := client.Login(c.user, c.password); err != nil {
		_ = client.Logout()
		return nil, err
	}
	return client, nil
}

// messagesWithDocuments inspects body structures so only messages with a readable
// attachment are downloaded.
func (c *Connector) messagesWithDocuments(client *imapclient.Client, ids []uint32) ([]uint32, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() { done <- client.Fetch(seqset, []imap.FetchItem{imap.FetchBodyStructure}, messages) }()

	out := make([]uint32, 0, len(ids))
	for msg := range messages {
		if msg == nil || msg.BodyStructure == nil {
			continue
		}
		if c.hasDocument(msg.BodyStructure) {
			out = append(out, msg.SeqNum)
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Connector) hasDocument(bs *imap.BodyStructure) bool {
	found := false
	bs.Walk(func(_ []int, part *imap.BodyStructure) bool {
		if found {
			return false
		}
		if name, err := part.Filename(); err == nil && name != "" && c.accept(name) {
			found = true
			return false
		}
		return true
	})
	return found
}

func toFetched(msg *imap.Message, raw []byte) internal.FetchedMailMessage {
	messageID := ""
	subject := ""
	from := ""
	if msg.Envelope != nil {
		messageID = msg.Envelope.MessageId
		subject = msg.Envelope.Subject
		from = formatAddresses(msg.Envelope.From)
	}
	if messageID == "" {
		messageID = fmt.Sprintf("imap-%d", msg.Uid)
	}

	received := time.Now().UTC().Format(time.RFC3339)
	if !msg.InternalDate.IsZero() {
		received = msg.InternalDate.UTC().Format(time.RFC3339)
	}

	return internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  messageID,
		Subject:    subject,
		From:       from,
		ReceivedAt: received,
		Raw:        raw,
	}
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(strings.Join([]string{a.MailboxName, a.HostName}, "@"), "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
