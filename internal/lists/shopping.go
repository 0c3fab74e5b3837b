package lists

import "context"

// CreateList starts a new, empty shopping list.
func (s *Service) CreateList(ctx context.Context, name, description string) (ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return ShoppingList{}, err
	}
	now := s.now().UnixMilli()
	list := ShoppingList{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Items:       []ShoppingItem{},
		CreatedDate: now,
		UpdatedDate: now,
	}
	all = append(all, list)
	return list, s.store.Set(ctx, KeyShoppingLists, all)
}

// UpdateList renames a list and/or changes its description.
func (s *Service) UpdateList(ctx context.Context, id, name, description string) (ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return ShoppingList{}, err
	}
	i := listIndex(all, id)
	if i < 0 {
		return ShoppingList{}, ErrNotFound
	}
	all[i].Name = name
	all[i].Description = description
	all[i].UpdatedDate = s.now().UnixMilli()
	return all[i], s.store.Set(ctx, KeyShoppingLists, all)
}

// SetListSaved marks or unmarks a list as saved for reuse.
func (s *Service) SetListSaved(ctx context.Context, id string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return err
	}
	i := listIndex(all, id)
	if i < 0 {
		return ErrNotFound
	}
	all[i].Saved = saved
	all[i].UpdatedDate = s.now().UnixMilli()
	return s.store.Set(ctx, KeyShoppingLists, all)
}

// DeleteList removes a list entirely.
func (s *Service) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, l := range all {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	return s.store.Set(ctx, KeyShoppingLists, kept)
}

// Lists returns every shopping list in stored order.
func (s *Service) Lists(ctx context.Context) ([]ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists(ctx)
}

// AddItemInput carries the add-item form fields.
type AddItemInput struct {
	Name     string
	Quantity float64
	Unit     string
	Price    *float64
	Notes    string
}

// AddItem appends an item to a list and touches the list's updated stamp.
func (s *Service) AddItem(ctx context.Context, listID string, in AddItemInput) (ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return ShoppingItem{}, err
	}
	i := listIndex(all, listID)
	if i < 0 {
		return ShoppingItem{}, ErrNotFound
	}
	now := s.now().UnixMilli()
	item := ShoppingItem{
		ID:        s.newID(),
		Name:      in.Name,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Price:     in.Price,
		Notes:     in.Notes,
		AddedDate: now,
	}
	all[i].Items = append(all[i].Items, item)
	all[i].UpdatedDate = now
	all[i].Completed = false
	return item, s.store.Set(ctx, KeyShoppingLists, all)
}

// ToggleItem flips an item's completed flag. The list itself is completed
// exactly when it has items and all of them are checked off.
func (s *Service) ToggleItem(ctx context.Context, listID, itemID string) (ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return ShoppingList{}, err
	}
	i := listIndex(all, listID)
	if i < 0 {
		return ShoppingList{}, ErrNotFound
	}
	list := &all[i]
	found := false
	for j := range list.Items {
		if list.Items[j].ID == itemID {
			list.Items[j].Completed = !list.Items[j].Completed
			found = true
			break
		}
	}
	if !found {
		return ShoppingList{}, ErrNotFound
	}
	list.Completed = allCompleted(list.Items)
	list.UpdatedDate = s.now().UnixMilli()
	return *list, s.store.Set(ctx, KeyShoppingLists, all)
}

// RemoveItem drops an item from a list.
func (s *Service) RemoveItem(ctx context.Context, listID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.lists(ctx)
	if err != nil {
		return err
	}
	i := listIndex(all, listID)
	if i < 0 {
		return ErrNotFound
	}
	list := &all[i]
	kept := list.Items[:0]
	for _, item := range list.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	list.Items = kept
	list.Completed = allCompleted(list.Items)
	list.UpdatedDate = s.now().UnixMilli()
	return s.store.Set(ctx, KeyShoppingLists, all)
}

func (s *Service) lists(ctx context.Context) ([]ShoppingList, error) {
	var all []ShoppingList
	if _, err := s.store.Get(ctx, KeyShoppingLists, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func listIndex(all []ShoppingList, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

func allCompleted(items []ShoppingItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Completed {
			return false
		}
	}
	return true
}

// --- search history -------------------------------------------------------

// RecordSearch prepends an entry to the search history, newest first,
// keeping only the latest entries.
func (s *Service) RecordSearch(ctx context.Context, entry SearchEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []SearchEntry
	if _, err := s.store.Get(ctx, KeySearchHistory, &history); err != nil {
		return err
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = s.now().UnixMilli()
	}
	history = append([]SearchEntry{entry}, history...)
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}
	return s.store.Set(ctx, KeySearchHistory, history)
}

// SearchHistory returns the bounded history, newest first.
func (s *Service) SearchHistory(ctx context.Context) ([]SearchEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []SearchEntry
	if _, err := s.store.Get(ctx, KeySearchHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}
