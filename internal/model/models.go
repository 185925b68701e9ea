package model

// All 所有需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Plan{},
		&Tenant{},
		&Domain{},
		&Membership{},
		&TenantCounter{},
		&RoomType{},
		&Room{},
		&EventHall{},
		&Booking{},
		&EventBooking{},
		&Invoice{},
		&Payment{},
		&GymPlan{},
		&GymMembership{},
		&MenuItem{},
		&ServiceOrder{},
		&OrderItem{},
		&Notification{},
	}
}
