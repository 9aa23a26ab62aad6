package order

import (
	"fmt"
	"strconv"

	"github.com/vitorynet/configbot/internal/catalog"
)

// The prompt set is fixed; internationalization is out of scope.
const (
	msgWelcome = "به ربات فروش کانفیگ‌های پرسرعت ویتوری خوش آمدید\n\n⚡ پشتیبانی ۲۴ ساعته\n📱 مناسب برای انواع دستگاه‌ها"

	msgChooseLocation = "کشور مورد نظر را انتخاب کنید:"
	msgChooseVariant  = "نوع سرویس را انتخاب کنید:"
	msgChooseDuration = "مدت زمان را انتخاب کنید:"
	msgChooseVolume   = "حجم مورد نظر را انتخاب کنید:"
	msgAwaitReceipt   = "لطفاً تصویر فیش واریزی را ارسال کنید."
	msgReceiptAck     = "فیش شما ارسال شد. لطفا منتظر تایید مدیر بمانید."
	msgInfoAck        = "درخواست شما ثبت شد، منتظر پاسخ مدیر باشید."
	msgBackToMenu     = "بازگشت به منو:"
	msgInternalError  = "خطایی رخ داد، لطفاً دوباره از /start شروع کنید."

	msgSendConfigUsage = "فرمت صحیح: /send_config user_id کانفیگ"
	msgConfigSent      = "ارسال شد."

	btnBuy         = "✨ خرید اشتراک"
	btnInfo        = "ℹ️ مشخصات اشتراک"
	btnBack        = "🔙 بازگشت"
	btnBackToMenu  = "🔙 بازگشت به منو"
	btnSendReceipt = "✅ ارسال فیش"
)

func msgInfoRequest(userID int64) string {
	return fmt.Sprintf("درخواست مشخصات از کاربر: %d", userID)
}

func msgConfigReady(payload string) string {
	return "✅ کانفیگ شما آماده است:\n\n" + payload
}

func msgFulfillError(err error) string {
	return fmt.Sprintf("خطا: %v", err)
}

// renderSummary formats the order summary with payment instructions. The
// text is sent with HTML parse mode.
func renderSummary(s *Session, p PaymentDetails) string {
	label, _ := catalog.LocationLabel(s.Location)
	return fmt.Sprintf(
		"<b>✉️ مشخصات سفارش:</b>\n"+
			"کشور: %s\n"+
			"سرویس: %s\n"+
			"مدت: %d ماه\n"+
			"حجم: %d گیگ\n"+
			"<b>مبلغ: %s تومان</b>\n\n"+
			"لطفاً مبلغ را به شماره کارت زیر واریز کرده و سپس فیش را ارسال کنید:\n"+
			"<code>%s</code>\n(به نام %s)",
		label, s.Variant, s.Months, s.VolumeGB, formatAmount(s.Price), p.CardNumber, p.CardHolder,
	)
}

// formatAmount groups digits by thousands: 170000 -> "170,000".
func formatAmount(n int64) string {
	raw := strconv.FormatInt(n, 10)
	neg := false
	if len(raw) > 0 && raw[0] == '-' {
		neg = true
		raw = raw[1:]
	}
	var out []byte
	for i, d := range []byte(raw) {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
