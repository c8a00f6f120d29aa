package chat

import (
	"fmt"
	"regexp"
)

// bannerRegexp matches the system-authored welcome banner that opens every
// conversation. Banner messages never carry feedback controls.
var bannerRegexp = regexp.MustCompile(`歡迎來到.*！我是你的 AI 小幫手，你可以先從選單了解我們的服務～`)

// IsBanner reports whether a message is a system-generated welcome banner.
func IsBanner(m Message) bool {
	return bannerRegexp.MatchString(m.Content)
}

// WelcomeBanner builds the banner content for a shop.
func WelcomeBanner(shopName string) string {
	return fmt.Sprintf("歡迎來到%s！我是你的 AI 小幫手，你可以先從選單了解我們的服務～", shopName)
}
