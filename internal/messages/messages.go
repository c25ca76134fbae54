package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/extramods/modgate-bot/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

// FormatExpiry renders an expiry timestamp; the infinite sentinel is shown
// as a word, never as a year-9999 date.
func FormatExpiry(t time.Time) string {
	if !t.Before(types.InfiniteExpiry) {
		return "Навсегда"
	}
	return t.Format("02.01.2006 15:04")
}

func ErrorDefault() string {
	return "🚫 <b>Ошибка</b>\nПопробуйте ещё раз."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Команда не найдена</b>"
}

func StartWelcome(name string) string {
	who := Escape(name)
	if who == "" {
		who = "друг"
	}
	return fmt.Sprintf("👋 <b>Привет, %s!</b>\n"+
		"Здесь ты получишь доступ к приватным каналам с модами.\n\n"+
		"💎 Оформи подписку и забирай ссылки в меню.", who)
}

func GateRequired() string {
	return "🔒 <b>Доступ ограничен</b>\n" +
		"Для использования бота подпишитесь на каналы ниже, затем нажмите «Проверить подписку»."
}

func GateStillUnmet() string {
	return "❌ Вы подписались не на все каналы"
}

func GatePassed() string {
	return "✅ <b>Спасибо за подписку!</b>\nТеперь вам доступны все функции бота."
}

func ChooseTariff() string {
	return "💎 <b>Выберите тариф</b>\nПодписка продлевается, а не сгорает: новый срок добавится к текущему."
}

func UnknownTariff() string {
	return "🚫 <b>Такого тарифа нет</b>\nВыберите тариф из списка."
}

func InvoiceCreated(label string) string {
	return fmt.Sprintf("🧾 <b>Счёт создан</b>\nТариф: <b>%s</b>\n\n"+
		"1. Оплатите по кнопке ниже.\n"+
		"2. Нажмите «Проверить оплату».", Escape(label))
}

func ErrorInvoiceFailed() string {
	return "🚫 <b>Не удалось создать счёт</b>\nПопробуйте ещё раз через минуту."
}

func PaymentPending() string {
	return "⏳ <b>Оплата не найдена</b>\nЕсли вы уже оплатили, подождите немного и проверьте снова."
}

func PaymentSettled(expiresAt time.Time) string {
	return fmt.Sprintf("✅ <b>Оплата получена!</b>\nПодписка активна до: <b>%s</b>", FormatExpiry(expiresAt))
}

func PaymentAlreadySettled() string {
	return "✅ <b>Этот счёт уже оплачен</b>\nПодписка была начислена ранее."
}

func TopupChooseAmount() string {
	return "💰 <b>Пополнение баланса</b>\nВыберите сумму:"
}

func TopupSettled(creditRub float64) string {
	return fmt.Sprintf("✅ <b>Баланс пополнен</b>\nЗачислено: <b>%.0f ₽</b>", creditRub)
}

func Balance(rub float64) string {
	return fmt.Sprintf("💰 <b>Баланс:</b> %.2f ₽", rub)
}

func NoSubscription() string {
	return "😔 <b>У вас нет активной подписки</b>\nОформите её в меню «Тарифы»."
}

func SubscriptionStatus(expiresAt time.Time) string {
	return fmt.Sprintf("💎 <b>Подписка активна</b>\nДействует до: <b>%s</b>", FormatExpiry(expiresAt))
}

func SubscriptionsHeader() string {
	return "📋 <b>Ваши подписки</b>\n"
}

func SubscriptionLine(sub *types.Subscription) string {
	status := "⏸"
	if sub.IsActive {
		status = "✅"
	}
	return fmt.Sprintf("%s %s — до %s", status, Escape(sub.TariffID), FormatExpiry(sub.ExpiresAt))
}

func ModChannelsHeader() string {
	return "📦 <b>Каналы с модами</b>\nВыберите канал:"
}

func ModChannelsEmpty() string {
	return "📦 <b>Каналов пока нет</b>\nЗагляните позже."
}

func ModAccessDenied() string {
	return "🔒 <b>Нужна подписка</b>\nДоступ к приватным каналам открывается после оплаты тарифа."
}

func ModInviteLink(title, link string) string {
	return fmt.Sprintf("🔑 <b>%s</b>\nВаша персональная ссылка (одноразовая):\n%s", Escape(title), link)
}

func ErrorInviteFailed() string {
	return "🚫 <b>Не удалось создать ссылку</b>\nПопробуйте ещё раз."
}

func LicenseKey(key string) string {
	return fmt.Sprintf("🔑 <b>Ваш ключ:</b>\n<code>%s</code>", Escape(key))
}

func ExpiryWarning(expiresAt time.Time) string {
	return fmt.Sprintf("⏰ <b>Подписка скоро закончится</b>\n"+
		"Действует до: <b>%s</b>\nПродлите её, чтобы не потерять доступ.", FormatExpiry(expiresAt))
}

func SubscriptionExpired() string {
	return "😔 <b>Подписка закончилась</b>\n" +
		"Доступ к приватным каналам закрыт. Оформите новую подписку в меню «Тарифы»."
}
