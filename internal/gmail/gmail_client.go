package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailmind/internal/logger"
	"mailmind/internal/model"
	"mailmind/internal/service"
)

const (
	userID     = "me"
	inboxLabel = "INBOX"
)

type gmailClient struct {
	client *gmailapi.Service
	logger *logger.Logger
}

// NewGmailClient binds a Gmail API client to one bearer token. The token is
// used as-is; refreshing it is the sign-in flow's job.
func NewGmailClient(ctx context.Context, accessToken string, logger *logger.Logger) (service.MailClient, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return NewGmailClientWithOptions(ctx, logger, option.WithTokenSource(src))
}

// NewGmailClientWithOptions is NewGmailClient with explicit client options,
// e.g. a test endpoint.
func NewGmailClientWithOptions(ctx context.Context, logger *logger.Logger, opts ...option.ClientOption) (service.MailClient, error) {
	gmailService, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &gmailClient{
		client: gmailService,
		logger: logger.With("gmail"),
	}, nil
}

// Factory adapts NewGmailClient to service.MailClientFactory.
func Factory(logger *logger.Logger) service.MailClientFactory {
	return func(ctx context.Context, accessToken string) (service.MailClient, error) {
		return NewGmailClient(ctx, accessToken, logger)
	}
}

// Profile returns the mailbox address. It doubles as a credential check.
func (g *gmailClient) Profile(ctx context.Context) (string, error) {
	profile, err := g.client.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to access Gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

func (g *gmailClient) ListInboxIDs(ctx context.Context, maxResults int64) ([]string, error) {
	list, err := g.client.Users.Messages.List(userID).
		LabelIds(inboxLabel).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox messages: %w", err)
	}

	ids := make([]string, 0, len(list.Messages))
	for _, msg := range list.Messages {
		ids = append(ids, msg.Id)
	}

	g.logger.Debugf("listed %d inbox messages", len(ids))
	return ids, nil
}

// GetMessage fetches one message in full format and parses it. A payload
// that cannot be parsed yields a *model.MessageParseError.
func (g *gmailClient) GetMessage(ctx context.Context, id string) (model.Message, error) {
	msg, err := g.client.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return ParseMessage(msg)
}
