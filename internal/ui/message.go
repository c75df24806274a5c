package ui

import (
	"github.com/desertthunder/migtrack/internal/models"
)

// componentsFetchedMsg carries the catalog listing fetched at startup.
type componentsFetchedMsg struct {
	components []models.ComponentSummary
	err        error
}

// snapshotMsg carries one pushed snapshot.
type snapshotMsg models.Snapshot

// watchEndedMsg reports that the snapshot stream stopped. A nil err means the server closed it.
type watchEndedMsg struct {
	err error
}
