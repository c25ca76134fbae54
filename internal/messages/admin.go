package messages

import "fmt"

func AdminMenu() string {
	return "🛠 <b>Админ-панель</b>\nВыберите действие:"
}

func AdminOnly() string {
	return "🚫 <b>Недостаточно прав</b>"
}

func GrantAskUserID() string {
	return "✍️ <b>Выдача подписки</b>\nОтправьте ID пользователя и тариф через пробел, например:\n<code>123456789 30d</code>"
}

func GrantBadInput() string {
	return "🚫 <b>Не понял</b>\nФормат: <code>ID тариф</code>, например <code>123456789 30d</code>"
}

func GrantDone(userID int64, label string) string {
	return fmt.Sprintf("✅ <b>Готово</b>\nПользователю <code>%d</code> выдан тариф <b>%s</b>.", userID, Escape(label))
}

func GateListHeader() string {
	return "📢 <b>Каналы-спонсоры</b>\n"
}

func GateAskUsername() string {
	return "✍️ Отправьте @username канала:"
}

func GateAskTitle() string {
	return "✍️ Отправьте название канала (для кнопки):"
}

func GateAdded(username string) string {
	return fmt.Sprintf("✅ Канал %s добавлен.", Escape(username))
}

func GateRemoved() string {
	return "✅ Канал удалён."
}

func GateMinReached(min int) string {
	return fmt.Sprintf("🚫 <b>Нельзя удалить</b>\nДолжен остаться минимум %d канал(а).", min)
}

func ModListHeader() string {
	return "📦 <b>Каналы с модами</b>\n"
}

func ModAskTitle() string {
	return "✍️ Отправьте название канала:"
}

func ModAskUsername() string {
	return "✍️ Отправьте @username канала (для публичного) или «-» чтобы пропустить:"
}

func ModAskChannelID() string {
	return "✍️ Отправьте числовой ID приватного канала (бот должен быть админом) или «-» для публичного:"
}

func ModAskURL() string {
	return "✍️ Отправьте ссылку на канал (запасная, если бот не сможет создать инвайт):"
}

func ModAdded(title string) string {
	return fmt.Sprintf("✅ Канал «%s» добавлен.", Escape(title))
}

func ModRemoved() string {
	return "✅ Канал удалён."
}

func BroadcastAsk() string {
	return "✍️ <b>Рассылка</b>\nОтправьте текст сообщения:"
}

func BroadcastDone(success, failed int) string {
	return fmt.Sprintf("📣 <b>Рассылка завершена</b>\nДоставлено: %d\nОшибок: %d", success, failed)
}

func VpnChooseCountry() string {
	return "🌍 <b>VPN</b>\nВыберите страну сервера:"
}

func VpnConfig(country, config string) string {
	return fmt.Sprintf("🔐 <b>VPN · %s</b>\nВаш конфиг:\n<code>%s</code>", Escape(country), Escape(config))
}

func VpnUnavailable() string {
	return "🚫 <b>Сервер недоступен</b>\nВыберите другую страну."
}
