package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard/internal/activity"
)

// ActivityLog reads the activity table written by the activity updater.
type ActivityLog struct {
	table *aztables.Client
}

// NewActivityLog connects to tableName using an Azure storage connection string.
func NewActivityLog(connStr, tableName string) (*ActivityLog, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, activity.TableClientOptions())
	if err != nil {
		return nil, err
	}
	return &ActivityLog{table: svc.NewClient(tableName)}, nil
}

// Recent returns up to limit activity items of ownerID, newest first.
func (a *ActivityLog) Recent(ctx context.Context, ownerID string, limit int) ([]activity.Item, error) {
	filter := activity.PartitionFilter(ownerID)
	top := int32(limit)
	pager := a.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	items := make([]activity.Item, 0, limit)
	for pager.More() && len(items) < limit {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent activity.Entry
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			items = append(items, ent.Item())
			if len(items) == limit {
				break
			}
		}
	}
	return items, nil
}
