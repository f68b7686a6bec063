package usecase

import (
	"fmt"
	"sort"

	"plantio/internal/domain/entity"
)

// ConsolidateAdminRooms merges each customer's admin support rooms into a
// single queue entry. Duplicate rooms exist because the open-room dedup
// check is not transactional, so the merge happens at read time: the most
// recently updated room represents the customer, unread counts are summed
// across the duplicates, and the entry is annotated with the number of
// underlying conversations. Seller support rooms pass through untouched.
// The merge never writes back; it is recomputed on every listing.
func ConsolidateAdminRooms(rooms []*entity.ChatRoom) []*entity.ChatRoom {
	byCustomer := make(map[string][]*entity.ChatRoom)
	var order []string
	var passthrough []*entity.ChatRoom
	for _, room := range rooms {
		if room.ChatType != entity.ChatTypeAdminSupport {
			passthrough = append(passthrough, room)
			continue
		}
		if _, seen := byCustomer[room.CustomerID]; !seen {
			order = append(order, room.CustomerID)
		}
		byCustomer[room.CustomerID] = append(byCustomer[room.CustomerID], room)
	}

	consolidated := make([]*entity.ChatRoom, 0, len(order)+len(passthrough))
	consolidated = append(consolidated, passthrough...)
	for _, customerID := range order {
		group := byCustomer[customerID]

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})

		merged := *group[0]
		merged.Participants = append([]string(nil), group[0].Participants...)

		if len(group) > 1 {
			totalUnread := 0
			for _, room := range group {
				totalUnread += room.UnreadCount
			}
			merged.UnreadCount = totalUnread
			merged.CustomerName = fmt.Sprintf("%s (%d conversations)", merged.CustomerName, len(group))
		}

		consolidated = append(consolidated, &merged)
	}

	sort.SliceStable(consolidated, func(i, j int) bool {
		return consolidated[i].UpdatedAt.After(consolidated[j].UpdatedAt)
	})

	return consolidated
}
