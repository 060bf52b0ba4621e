package handler

type ContextKey string

var (
	RoleCtxKey   ContextKey = "role"
	SubCtxKey    ContextKey = "sub"
	MyInfoCtx    ContextKey = "myInfo"
	UserInfoCtx  ContextKey = "userInfo"
	AssetCtx     ContextKey = "asset"
	BookingCtx   ContextKey = "booking"
	WorkOrderCtx ContextKey = "workOrder"
)
