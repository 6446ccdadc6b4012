package zulip

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
)

// Name is the registry name of the zulip plugins.
const Name = "zulip"

// Plugin meta keys written by this package.
const (
	MetaBot   = "zulip_bot"
	MetaMsgID = "msg_id"
)

// BacklogPlugin mirrors each backlog as one chat message in its project's
// stream and keeps that message current on update.
type BacklogPlugin struct {
	plugin.Base[models.Backlog]
	client *Client
	bot    string
	log    *logrus.Logger
}

// NewBacklogPlugin creates a BacklogPlugin posting as bot.
func NewBacklogPlugin(client *Client, bot string, log *logrus.Logger) *BacklogPlugin {
	return &BacklogPlugin{client: client, bot: bot, log: log}
}

// Name implements plugin.Plugin.
func (p *BacklogPlugin) Name() string { return Name }

// BeforeCreate records which bot owns the backlog's message.
func (p *BacklogPlugin) BeforeCreate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	out := *b
	out.PluginMeta = b.PluginMeta.Merge(models.PluginMeta{MetaBot: p.bot})

	return &out, nil
}

// AfterCreate posts the backlog and remembers the message id. A failed post
// leaves the backlog as it was.
func (p *BacklogPlugin) AfterCreate(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	id, err := p.client.SendStreamMessage(ctx, StreamName(projectName(b)), BacklogTopic, FormatBacklog(b))
	if err != nil {
		p.log.WithError(err).WithField("backlog_id", b.ID).Warn("posting backlog to zulip")
		return b, nil
	}

	out := b.Clone()
	out.PluginMeta = out.PluginMeta.Merge(models.PluginMeta{MetaMsgID: id})

	return out, nil
}

// AfterUpdate edits the backlog's message. Backlogs that were never posted
// are left alone.
func (p *BacklogPlugin) AfterUpdate(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	id, ok := b.PluginMeta.Int64(MetaMsgID)
	if !ok {
		return b, nil
	}

	if err := p.client.UpdateMessage(ctx, id, BacklogTopic, FormatBacklog(b)); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"backlog_id": b.ID,
			"msg_id":     id,
		}).Warn("editing zulip message")
	}

	return b, nil
}

// ProjectPlugin opens a private stream per project for the admins.
type ProjectPlugin struct {
	plugin.Base[models.Project]
	client *Client
	bot    string
	admins []string
	log    *logrus.Logger
}

// NewProjectPlugin creates a ProjectPlugin subscribing admins to new streams.
func NewProjectPlugin(client *Client, bot string, admins []string, log *logrus.Logger) *ProjectPlugin {
	return &ProjectPlugin{client: client, bot: bot, admins: admins, log: log}
}

// Name implements plugin.Plugin.
func (p *ProjectPlugin) Name() string { return Name }

// BeforeCreate records which bot owns the project's stream.
func (p *ProjectPlugin) BeforeCreate(_ context.Context, pr *models.Project) (*models.Project, error) {
	out := *pr
	out.PluginMeta = pr.PluginMeta.Merge(models.PluginMeta{MetaBot: p.bot})

	return &out, nil
}

// AfterCreate creates the project's stream.
func (p *ProjectPlugin) AfterCreate(ctx context.Context, pr *models.Project) (*models.Project, error) {
	stream := StreamSpec{Name: ProjectStreamName(pr), Description: pr.Description}

	if err := p.client.CreateStream(ctx, stream, p.admins); err != nil {
		p.log.WithError(err).WithField("project_id", pr.ID).Warn("creating zulip stream")
	}

	return pr, nil
}
