// Package plugins wires the built-in plugins into a plugin.Registry.
// Registration order is hook order: the notifier runs before the live feed so
// broadcast events already carry the notifier's plugin_meta.
package plugins

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/config"
	"github.com/persistorai/backlog/internal/plugin"
	"github.com/persistorai/backlog/internal/plugins/live"
	"github.com/persistorai/backlog/internal/plugins/zulip"
)

var errZulipNotConfigured = errors.New("ZULIP_API_URL is not set")

// Register adds the zulip and live plugins for both entity types.
func Register(reg *plugin.Registry, zc config.ZulipConfig, hub live.Broadcaster, log *logrus.Logger) {
	newClient := func() (*zulip.Client, error) {
		if zc.APIURL == "" {
			return nil, errZulipNotConfigured
		}

		return zulip.NewClient(zulip.Config{
			BaseURL: zc.APIURL,
			Email:   zc.Email,
			APIKey:  zc.APIKey.Value(),
			Timeout: zc.Timeout,
		}, nil), nil
	}

	reg.RegisterProject(zulip.Name, func() (plugin.ProjectPlugin, error) {
		c, err := newClient()
		if err != nil {
			return nil, err
		}

		return zulip.NewProjectPlugin(c, zc.BotName, zc.AdminEmails, log), nil
	})

	reg.RegisterBacklog(zulip.Name, func() (plugin.BacklogPlugin, error) {
		c, err := newClient()
		if err != nil {
			return nil, err
		}

		return zulip.NewBacklogPlugin(c, zc.BotName, log), nil
	})

	reg.RegisterProject(live.Name, func() (plugin.ProjectPlugin, error) {
		return live.NewProjectPlugin(hub), nil
	})

	reg.RegisterBacklog(live.Name, func() (plugin.BacklogPlugin, error) {
		return live.NewBacklogPlugin(hub), nil
	})
}
