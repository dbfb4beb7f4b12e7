package models

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tournament{},
		&TournamentParticipant{},
		&Transaction{},
		&Team{},
		&TeamPlayer{},
		&KycDocument{},
		&Announcement{},
		&SupportTicket{},
		&UserBadge{},
	}
}
