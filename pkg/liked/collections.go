package liked

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/util"
	"golang.org/x/exp/slices"
)

// Collections is the single in-process owner of the liked stops and groups.
// Writes are serialized and each one is applied to memory only after the store
// confirms it, so a failed write leaves the last confirmed value in place.
type Collections struct {
	store Store
	mutex sync.Mutex

	stopOrder  []string
	groups     map[string]*BusGroup
	groupOrder []string
}

func NewCollections(store Store) *Collections {
	return &Collections{
		store:  store,
		groups: map[string]*BusGroup{},
	}
}

// Load reads every value from the store. Values that fail to load stay empty.
func (c *Collections) Load(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var firstErr error
	record := func(key string, err error) {
		log.Error().Err(err).Str("key", key).Msg("Failed to load liked collection")
		if firstErr == nil {
			firstErr = asPersistenceError("get", key, err)
		}
	}

	if order, err := c.store.GetLikedStopOrder(ctx); err != nil {
		record(LikedStopsOrderKey, err)
	} else {
		c.stopOrder = util.RemoveDuplicateStrings(order, nil)
	}

	if groups, err := c.store.GetGroups(ctx); err != nil {
		record(LikedGroupsKey, err)
	} else {
		c.groups = groups
	}

	if order, err := c.store.GetGroupOrder(ctx); err != nil {
		record(LikedGroupsOrderKey, err)
	} else {
		c.groupOrder = util.RemoveDuplicateStrings(order, nil)
	}

	return firstErr
}

func (c *Collections) LikedStops() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return append([]string{}, c.stopOrder...)
}

func (c *Collections) IsStopLiked(stopCode string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return slices.Contains(c.stopOrder, stopCode)
}

// ToggleStop likes a stop by appending it, or unlikes it if already liked.
// It returns whether the stop is liked afterwards.
func (c *Collections) ToggleStop(ctx context.Context, stopCode string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	order := append([]string{}, c.stopOrder...)

	index := slices.Index(order, stopCode)
	liked := index < 0
	if liked {
		order = append(order, stopCode)
	} else {
		order = slices.Delete(order, index, index+1)
	}

	if err := c.writeStopOrder(ctx, order); err != nil {
		return !liked, err
	}

	return liked, nil
}

// MoveStop moves the liked stop at position from to position to
func (c *Collections) MoveStop(ctx context.Context, from int, to int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	order, err := move(c.stopOrder, from, to)
	if err != nil {
		return err
	}

	return c.writeStopOrder(ctx, order)
}

// SetStopOrder replaces the liked stops, dropping duplicates
func (c *Collections) SetStopOrder(ctx context.Context, order []string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.writeStopOrder(ctx, util.RemoveDuplicateStrings(order, nil))
}

func (c *Collections) Groups() map[string]*BusGroup {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	groups := make(map[string]*BusGroup, len(c.groups))
	for name, group := range c.groups {
		groups[name] = group.Clone()
	}

	return groups
}

// GroupOrder is the display order of the unarchived groups
func (c *Collections) GroupOrder() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return append([]string{}, c.groupOrder...)
}

func (c *Collections) CreateGroup(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if name == "" {
		return ErrInvalidGroupName
	}
	if _, exists := c.groups[name]; exists {
		return ErrGroupExists
	}

	groups := c.cloneGroups()
	groups[name] = &BusGroup{BusStops: map[string][]string{}}

	return c.writeGroups(ctx, groups, append(append([]string{}, c.groupOrder...), name))
}

func (c *Collections) RenameGroup(ctx context.Context, oldName string, newName string) error {
	newName = strings.TrimSpace(newName)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if newName == "" {
		return ErrInvalidGroupName
	}
	if _, exists := c.groups[oldName]; !exists {
		return ErrGroupNotFound
	}
	if oldName == newName {
		return nil
	}
	if _, exists := c.groups[newName]; exists {
		return ErrGroupExists
	}

	groups := c.cloneGroups()
	groups[newName] = groups[oldName]
	delete(groups, oldName)

	order := append([]string{}, c.groupOrder...)
	if index := slices.Index(order, oldName); index >= 0 {
		order[index] = newName
	}

	return c.writeGroups(ctx, groups, order)
}

// ArchiveGroup hides or restores a group. Archived groups leave the display
// order and restored ones are appended to it.
func (c *Collections) ArchiveGroup(ctx context.Context, name string, archived bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.groups[name]; !exists {
		return ErrGroupNotFound
	}

	groups := c.cloneGroups()
	groups[name].IsArchived = archived

	order := removeString(c.groupOrder, name)
	if !archived {
		order = append(order, name)
	}

	return c.writeGroups(ctx, groups, order)
}

func (c *Collections) DeleteGroup(ctx context.Context, name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.groups[name]; !exists {
		return ErrGroupNotFound
	}

	groups := c.cloneGroups()
	delete(groups, name)

	return c.writeGroups(ctx, groups, removeString(c.groupOrder, name))
}

// ToggleService adds or removes a service at a stop within a group. A stop
// left with no services is removed from the group. It returns whether the
// service is liked afterwards.
func (c *Collections) ToggleService(ctx context.Context, groupName string, stopCode string, serviceNumber string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.groups[groupName]; !exists {
		return false, ErrGroupNotFound
	}

	groups := c.cloneGroups()
	group := groups[groupName]
	services := group.BusStops[stopCode]

	index := slices.Index(services, serviceNumber)
	liked := index < 0
	if liked {
		services = append(services, serviceNumber)
	} else {
		services = slices.Delete(services, index, index+1)
	}

	if len(services) == 0 {
		delete(group.BusStops, stopCode)
	} else {
		group.BusStops[stopCode] = services
	}

	if err := c.writeGroupsOnly(ctx, groups); err != nil {
		return !liked, err
	}

	return liked, nil
}

func (c *Collections) MoveGroup(ctx context.Context, from int, to int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	order, err := move(c.groupOrder, from, to)
	if err != nil {
		return err
	}

	if err := c.store.SetGroupOrder(ctx, order); err != nil {
		return c.writeFailed("set", LikedGroupsOrderKey, err)
	}
	c.groupOrder = order

	return nil
}

// ReplaceGroups swaps in a whole new set of groups and display order. Names in
// the order that are not unarchived groups are dropped.
func (c *Collections) ReplaceGroups(ctx context.Context, groups map[string]*BusGroup, order []string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cloned := make(map[string]*BusGroup, len(groups))
	for name, group := range groups {
		if group == nil {
			group = &BusGroup{}
		}
		cloned[name] = group.Clone()
	}

	var validOrder []string
	for _, name := range util.RemoveDuplicateStrings(order, nil) {
		if group, exists := cloned[name]; exists && !group.IsArchived {
			validOrder = append(validOrder, name)
		}
	}

	return c.writeGroups(ctx, cloned, validOrder)
}

// LikedServices lists the services liked at a stop across the unarchived groups
func (c *Collections) LikedServices(stopCode string) []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var services []string
	for _, name := range c.groupOrder {
		group, exists := c.groups[name]
		if !exists || group.IsArchived {
			continue
		}
		services = append(services, group.BusStops[stopCode]...)
	}

	return util.RemoveDuplicateStrings(services, nil)
}

func (c *Collections) writeStopOrder(ctx context.Context, order []string) error {
	if err := c.store.SetLikedStopOrder(ctx, order); err != nil {
		return c.writeFailed("set", LikedStopsOrderKey, err)
	}

	c.stopOrder = order
	return nil
}

func (c *Collections) writeGroupsOnly(ctx context.Context, groups map[string]*BusGroup) error {
	if err := c.store.SetGroups(ctx, groups); err != nil {
		return c.writeFailed("set", LikedGroupsKey, err)
	}

	c.groups = groups
	return nil
}

// writeGroups stores the groups and then the order. The two writes are not
// atomic; each value is committed to memory only once its own write succeeds.
func (c *Collections) writeGroups(ctx context.Context, groups map[string]*BusGroup, order []string) error {
	if err := c.writeGroupsOnly(ctx, groups); err != nil {
		return err
	}

	if order == nil {
		order = []string{}
	}
	if err := c.store.SetGroupOrder(ctx, order); err != nil {
		return c.writeFailed("set", LikedGroupsOrderKey, err)
	}

	c.groupOrder = order
	return nil
}

func (c *Collections) writeFailed(operation string, key string, err error) error {
	log.Error().Err(err).Str("key", key).Msg("Failed to persist liked collection, keeping last confirmed value")
	return asPersistenceError(operation, key, err)
}

func (c *Collections) cloneGroups() map[string]*BusGroup {
	groups := make(map[string]*BusGroup, len(c.groups))
	for name, group := range c.groups {
		groups[name] = group.Clone()
	}

	return groups
}

func move(items []string, from int, to int) ([]string, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, ErrIndexOutOfRange
	}

	moved := append([]string{}, items...)
	item := moved[from]
	moved = slices.Delete(moved, from, from+1)
	moved = slices.Insert(moved, to, item)

	return moved, nil
}

func removeString(items []string, item string) []string {
	result := make([]string, 0, len(items))
	for _, existing := range items {
		if existing != item {
			result = append(result, existing)
		}
	}

	return result
}
