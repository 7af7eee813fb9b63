package domain

// Tables lists every gorm model migrated at startup.
var Tables = []interface{}{
	&ChatAccount{},
}
