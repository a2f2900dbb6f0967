package bot

const (
	msgWelcome           = "👋 Добро пожаловать! Введите ваше ФИО:"
	msgAlreadyRegistered = "🔁 Вы уже зарегистрированы!"
	msgAskPhone          = "Теперь отправьте ваш номер телефона:"
	msgPhoneViaButton    = "Пожалуйста, отправьте номер телефона через кнопку"
	msgSendingOffer      = "Спасибо! Теперь отправляем оферту..."
	msgOfferCaption      = "📄 Пожалуйста, ознакомьтесь с офертой:"
	msgOfferFailed       = "⚠️ Не удалось отправить оферту"
	msgConsentThanks     = "✅ Спасибо! Теперь вам доступен функционал бота."
	msgAlreadyAgreed     = "Вы уже приняли оферту ранее"
	msgUserMissing       = "⚠️ Ошибка: пользователь не найден"
	msgMainMenu          = "🏠 Главное меню:"
	msgUseApp            = "🤖 Воспользуйтесь кнопкой ниже для открытия приложения или введите команду:"
	msgUnblocked         = "Спасибо за разблокировку! Для продолжения работы необходимо подтвердить согласие с офертой!"
	msgError             = "⚠️ Произошла ошибка. Пожалуйста, попробуйте снова."
	msgRestart           = "⚠️ Произошла ошибка. Пожалуйста, начните снова с /start"
	msgRateLimited       = "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного."

	btnSharePhone = "📱 Отправить номер"
	btnAgree      = "✅ Согласен"
	btnOpenApp    = "📱 Открыть приложение"
	btnSchedule   = "📅 Расписание"
	btnMySubs     = "💳 Мои абонементы"
	btnMyBookings = "📝 Мои записи"

	callbackAgreeOffer = "agree_offer"
	offerFileName      = "Оферта.pdf"
)
