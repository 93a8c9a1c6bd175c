package attendance

import "github.com/marshalhq/marshals-api/internal/domain"

// Message constructors take the event explicitly so both locales are built
// from the record, never from ambient language state.

func approvalMessage(event *domain.Event) domain.Message {
	return domain.Message{
		Type:           domain.NotificationApproval,
		TitleEn:        "Attendance approved",
		TitleAr:        "تمت الموافقة على الحضور",
		BodyEn:         "Your attendance request for " + event.Title(domain.LocaleEn) + " has been approved.",
		BodyAr:         "تمت الموافقة على طلب حضورك لفعالية " + event.Title(domain.LocaleAr) + ".",
		RelatedEventID: &event.EventID,
	}
}

func rejectionMessage(event *domain.Event) domain.Message {
	return domain.Message{
		Type:           domain.NotificationRejection,
		TitleEn:        "Attendance rejected",
		TitleAr:        "تم رفض الحضور",
		BodyEn:         "Your attendance request for " + event.Title(domain.LocaleEn) + " has been rejected.",
		BodyAr:         "تم رفض طلب حضورك لفعالية " + event.Title(domain.LocaleAr) + ".",
		RelatedEventID: &event.EventID,
	}
}

func cancellationMessage(event *domain.Event, marshalName, reason string) domain.Message {
	bodyEn := marshalName + " cancelled their attendance for " + event.Title(domain.LocaleEn) + "."
	bodyAr := "قام " + marshalName + " بإلغاء حضوره لفعالية " + event.Title(domain.LocaleAr) + "."
	if reason != "" {
		bodyEn += " Reason: " + reason
		bodyAr += " السبب: " + reason
	}
	return domain.Message{
		Type:           domain.NotificationCancellation,
		TitleEn:        "Attendance cancelled",
		TitleAr:        "تم إلغاء الحضور",
		BodyEn:         bodyEn,
		BodyAr:         bodyAr,
		RelatedEventID: &event.EventID,
	}
}
