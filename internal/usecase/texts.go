package usecase

import "lead-intake-bot/internal/domain"

const AlgorithmText = "Вот алгоритм действий для подготовки и разговора с клиентом:\n\n" +
	"1) Подготовка к контакту:\n" +
	"   - Определить источник лида.\n" +
	"   - Уточнить регион клиента (авто).\n" +
	"   - Проверить часовой пояс.\n" +
	"   - Узнать доступность в мессенджерах.\n" +
	"   - Подготовить материалы и локальные номера.\n" +
	"2) Первый контакт:\n" +
	"   - Попробовать дозвон через телефонию.\n" +
	"   - При недоступности - попробовать WhatsApp/Telegram.\n" +
	"   - Записать результат в CRM.\n" +
	"3) Продолжение:\n" +
	"   - Повторное касание через 1 день.\n" +
	"   - Поддержка интереса, отправка материалов.\n" +
	"4) Разговор с клиентом:\n" +
	"   - Представиться.\n" +
	"   - Уточнить бюджет/цель/условия.\n" +
	"   - Презентация объекта.\n" +
	"   - Записать предпочтения в CRM.\n" +
	"5) Завершение / финализация:\n" +
	"   - Если готов - организовать видеозвонок или осмотр.\n" +
	"   - Иначе - запланировать повтор.\n" +
	"6) Постконтактная работа:\n" +
	"   - Записать итог контакта.\n" +
	"   - Продолжить взаимодействие, если клиент \"отложил\".\n"

const startText = "Привет! Я бот, помогающий заполнить лид. " +
	"Скопируйте и вставьте данные в таком формате:\n\n" +
	"Имя клиента: Иван Иванов\n" +
	"Телефон: +71234567890\n" +
	"Telegram: @ivanov\n" +
	"WhatsApp: +71234567890\n" +
	"Email: ivanov@example.com\n" +
	"Мессенджер: WhatsApp\n" +
	"Purpose: Business meeting\n" +
	"Payment method: Credit card\n" +
	"UTM: utm_source=telegram&utm_medium=bot\n" +
	"Project: Intellect | Cove Edition | 300k+ | ENG\n" +
	"Region: Dubai (необязательно)\n\n" +
	"Потом я выведу меню, чтобы можно было уточнить и проверить всё остальное!"

const (
	msgUnauthorized   = "Извините, у вас нет прав пользоваться этим ботом."
	msgCancelled      = "Процесс отменён. Введите /start, чтобы начать заново."
	msgUnknownCommand = "Неизвестная команда. Попробуйте /start или /algorithm."
	msgFinished       = "Все данные обновлены! Я готов принять нового лида.\n" +
		"Просто пришлите следующий лид в том же формате."

	msgSaveFailed    = "Ой, что-то пошло не так при записи в таблицу. Попробуйте позже."
	msgRowReadFailed = "Не смог получить данные о лиде. Попробуйте позже."
	msgReadFailed    = "Ошибка при чтении данных. Попробуйте позже."
	msgUpdateFailed  = "Произошла ошибка при обновлении. Попробуйте ещё раз."
	msgWriteFailed   = "Произошла ошибка при сохранении. Попробуйте позже."
	msgSessionFailed = "Не удалось сохранить состояние диалога. Попробуйте ещё раз."
	msgInternal      = "Произошла ошибка. Попробуйте позже."
	msgSessionLost   = "Значение сохранено, но состояние диалога потеряно. Пришлите новый лид или введите /start."

	msgBadCallback   = "Что-то не так с данными кнопки (callback_data)."
	msgUnknownField  = "Неизвестное поле для обновления."
	msgUnknownOption = "Неизвестная опция."
	msgNoActiveLead  = "Сейчас нет лида в работе. Пришлите новый лид или введите /start."
	msgNoPending     = "Не найдено, какое поле надо заполнить. Попробуйте заново."

	emptyValue = "Пусто"
	notApplied = "N/A"
)

var validationTexts = map[domain.ValidationReason]string{
	domain.MissingRequiredField: "Ой! Похоже, вы не указали 'Имя клиента'. Пожалуйста, повторите.",
	domain.NoContactChannel:     "Чтобы связаться, нужен либо телефон, либо мессенджер. Пожалуйста, добавьте одно из них.",
	domain.InvalidPhoneFormat:   "Формат телефона кажется неправильным. Попробуйте ещё раз.",
	domain.InvalidEmailFormat:   "Email выглядит некорректным. Исправьте или уберите поле Email.",
}
