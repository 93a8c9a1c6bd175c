package event

import "github.com/marshalhq/marshals-api/internal/domain"

func invitationMessage(event *domain.Event) domain.Message {
	return domain.Message{
		Type:           domain.NotificationInvitation,
		TitleEn:        "Event invitation",
		TitleAr:        "دعوة لفعالية",
		BodyEn:         "You have been invited to marshal at " + event.Title(domain.LocaleEn) + ".",
		BodyAr:         "تمت دعوتك للعمل كمنظم في فعالية " + event.Title(domain.LocaleAr) + ".",
		RelatedEventID: &event.EventID,
	}
}
