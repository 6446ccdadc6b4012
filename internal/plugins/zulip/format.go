package zulip

import (
	"fmt"

	"github.com/persistorai/backlog/internal/models"
)

// BacklogTopic is the topic every backlog message is posted under.
const BacklogTopic = "📑 [BACKLOG] "

// dueDateLayout renders due dates as dd-mm-YYYY.
const dueDateLayout = "02-01-2006"

// StreamName returns the stream of a project as referenced by backlog posts.
func StreamName(projectName string) string {
	return "📌PRJ/" + projectName
}

// ProjectStreamName returns the stream name created for a project. Pinned
// projects carry the pin marker so they sort first in chat clients.
func ProjectStreamName(p *models.Project) string {
	if p.Pinned {
		return StreamName(p.Name)
	}

	return "PRJ/" + p.Name
}

// FormatBacklog renders the chat line of a backlog.
func FormatBacklog(b *models.Backlog) string {
	return fmt.Sprintf("%s %s %s **[%s]** %s  **:time::%s** @**%s** %s",
		b.Status, b.Priority, b.Progress, b.RefID, b.Title,
		b.DueDate.Format(dueDateLayout), b.AssigneeName, b.Category)
}

// projectName is the display name backlog messages are routed by.
func projectName(b *models.Backlog) string {
	if b.ProjectName != "" {
		return b.ProjectName
	}

	return b.ProjectSlug
}
