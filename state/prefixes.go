package state

var (
	platformKeyBytes   = []byte("market/platform")
	designerPrefix     = []byte("market/designer/")
	designPrefix       = []byte("market/design/")
	distributionPrefix = []byte("market/dist/")
	accountPrefix      = []byte("market/account/")
	tokenClassPrefix   = []byte("token/class/")
	tokenBalancePrefix = []byte("token/balance/")
)
