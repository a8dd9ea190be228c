// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import "golang.org/x/text/language"

// Message keys.
const (
	AppTitle = "app.title"

	SignIn         = "auth.signIn"
	UserID         = "auth.userId"
	DisplayName    = "auth.displayName"
	Token          = "auth.token"
	TokenHint      = "auth.tokenHint"
	FormHelp       = "auth.formHelp"
	UserRequired   = "auth.userRequired"
	TokenRequired  = "auth.tokenRequired"
	SignInFailed   = "auth.signInFailed"
	SessionWarning = "auth.sessionTimeoutWarning"
	LoggedOutIn    = "auth.youWillBeLoggedOutIn"
	PressAnyKey    = "auth.pressAnyKeyToExtend"
	ExtendSession  = "auth.extendSession"
	SessionExpired = "auth.sessionExpired"
	ExpiredDetail  = "auth.expiredDetail"
	ExpiredHelp    = "auth.expiredHelp"

	Welcome         = "home.welcome"
	SessionLength   = "home.sessionLength"
	IdleFor         = "home.idleFor"
	AutoSignOutIn   = "home.autoSignOutIn"
	HomeHelp        = "home.help"
	SignedOutRemote = "home.signedOutElsewhere"

	StateLoggedOut = "state.loggedOut"
	StateActive    = "state.active"
	StateWarning   = "state.warning"
	StateExpired   = "state.expired"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		AppTitle:        "Todo",
		SignIn:          "Sign in",
		UserID:          "User ID",
		DisplayName:     "Display name",
		Token:           "Token",
		TokenHint:       "Paste a JWT to fill in the other fields",
		FormHelp:        "tab next field · enter sign in · esc quit",
		UserRequired:    "User ID is required",
		TokenRequired:   "Token is required",
		SignInFailed:    "Sign in failed: %s",
		SessionWarning:  "Session Timeout Warning",
		LoggedOutIn:     "You will be logged out in %s",
		PressAnyKey:     "Press any key or click anywhere to stay signed in",
		ExtendSession:   "Extend session",
		SessionExpired:  "Session expired",
		ExpiredDetail:   "You were signed out after %s of inactivity.",
		ExpiredHelp:     "enter sign in again · q quit",
		Welcome:         "Welcome, %s",
		SessionLength:   "Session: %s",
		IdleFor:         "Idle: %s",
		AutoSignOutIn:   "Automatic sign out in: %s",
		HomeHelp:        "l sign out · q quit",
		SignedOutRemote: "Signed out from another terminal",
		StateLoggedOut:  "Signed out",
		StateActive:     "Active",
		StateWarning:    "Warning",
		StateExpired:    "Expired",
	},
	language.Hebrew: {
		AppTitle:        "משימות",
		SignIn:          "התחברות",
		UserID:          "מזהה משתמש",
		DisplayName:     "שם תצוגה",
		Token:           "אסימון",
		TokenHint:       "הדבק JWT כדי למלא את שאר השדות",
		FormHelp:        "tab שדה הבא · enter התחברות · esc יציאה",
		UserRequired:    "נדרש מזהה משתמש",
		TokenRequired:   "נדרש אסימון",
		SignInFailed:    "ההתחברות נכשלה: %s",
		SessionWarning:  "אזהרת תום זמן החיבור",
		LoggedOutIn:     "תנותק בעוד %s",
		PressAnyKey:     "הקש על מקש כלשהו או לחץ בכל מקום כדי להישאר מחובר",
		ExtendSession:   "הארך חיבור",
		SessionExpired:  "פג תוקף החיבור",
		ExpiredDetail:   "נותקת לאחר %s ללא פעילות.",
		ExpiredHelp:     "enter התחבר מחדש · q יציאה",
		Welcome:         "ברוך הבא, %s",
		SessionLength:   "משך החיבור: %s",
		IdleFor:         "ללא פעילות: %s",
		AutoSignOutIn:   "ניתוק אוטומטי בעוד: %s",
		HomeHelp:        "l התנתקות · q יציאה",
		SignedOutRemote: "נותקת ממסוף אחר",
		StateLoggedOut:  "מנותק",
		StateActive:     "פעיל",
		StateWarning:    "אזהרה",
		StateExpired:    "פג תוקף",
	},
	language.Arabic: {
		AppTitle:        "المهام",
		SignIn:          "تسجيل الدخول",
		UserID:          "معرّف المستخدم",
		DisplayName:     "الاسم المعروض",
		Token:           "الرمز المميز",
		TokenHint:       "الصق JWT لملء الحقول الأخرى",
		FormHelp:        "tab الحقل التالي · enter تسجيل الدخول · esc خروج",
		UserRequired:    "معرّف المستخدم مطلوب",
		TokenRequired:   "الرمز المميز مطلوب",
		SignInFailed:    "فشل تسجيل الدخول: %s",
		SessionWarning:  "تحذير انتهاء مهلة الجلسة",
		LoggedOutIn:     "سيتم تسجيل خروجك خلال %s",
		PressAnyKey:     "اضغط أي مفتاح أو انقر في أي مكان للبقاء متصلاً",
		ExtendSession:   "تمديد الجلسة",
		SessionExpired:  "انتهت الجلسة",
		ExpiredDetail:   "تم تسجيل خروجك بعد %s من عدم النشاط.",
		ExpiredHelp:     "enter تسجيل الدخول مجدداً · q خروج",
		Welcome:         "مرحباً، %s",
		SessionLength:   "مدة الجلسة: %s",
		IdleFor:         "مدة الخمول: %s",
		AutoSignOutIn:   "تسجيل الخروج التلقائي خلال: %s",
		HomeHelp:        "l تسجيل الخروج · q خروج",
		SignedOutRemote: "تم تسجيل خروجك من طرفية أخرى",
		StateLoggedOut:  "غير متصل",
		StateActive:     "نشط",
		StateWarning:    "تحذير",
		StateExpired:    "منتهية",
	},
}
