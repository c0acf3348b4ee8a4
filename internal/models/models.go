package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Organization{},
		&Route{},
		&Stop{},
		&Driver{},
		&Bus{},
		&User{},
		&Subscription{},
		&LocationLogEntry{},
		&Notification{},
	}
}
