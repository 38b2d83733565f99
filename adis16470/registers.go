package adis16470

const (
	// User Register Memory Map Definitions
	RegisterFlashCnt     = 0x00
	RegisterDiagStat     = 0x02
	RegisterXGyroLow     = 0x04
	RegisterXGyroOut     = 0x06
	RegisterYGyroLow     = 0x08
	RegisterYGyroOut     = 0x0A
	RegisterZGyroLow     = 0x0C
	RegisterZGyroOut     = 0x0E
	RegisterXAcclLow     = 0x10
	RegisterXAcclOut     = 0x12
	RegisterYAcclLow     = 0x14
	RegisterYAcclOut     = 0x16
	RegisterZAcclLow     = 0x18
	RegisterZAcclOut     = 0x1A
	RegisterTempOut      = 0x1C
	RegisterTimeStamp    = 0x1E
	RegisterXDeltAngLow  = 0x24
	RegisterXDeltAngOut  = 0x26
	RegisterYDeltAngLow  = 0x28
	RegisterYDeltAngOut  = 0x2A
	RegisterZDeltAngLow  = 0x2C
	RegisterZDeltAngOut  = 0x2E
	RegisterXDeltVelLow  = 0x30
	RegisterXDeltVelOut  = 0x32
	RegisterYDeltVelLow  = 0x34
	RegisterYDeltVelOut  = 0x36
	RegisterZDeltVelLow  = 0x38
	RegisterZDeltVelOut  = 0x3A
	RegisterXGBiasLow    = 0x40
	RegisterXGBiasHigh   = 0x42
	RegisterYGBiasLow    = 0x44
	RegisterYGBiasHigh   = 0x46
	RegisterZGBiasLow    = 0x48
	RegisterZGBiasHigh   = 0x4A
	RegisterXABiasLow    = 0x4C
	RegisterXABiasHigh   = 0x4E
	RegisterYABiasLow    = 0x50
	RegisterYABiasHigh   = 0x52
	RegisterZABiasLow    = 0x54
	RegisterZABiasHigh   = 0x56
	RegisterFiltCtrl     = 0x5C
	RegisterMscCtrl      = 0x60
	RegisterUpScale      = 0x62
	RegisterDecRate      = 0x64
	RegisterNullCnfg     = 0x66
	RegisterGlobCmd      = 0x68
	RegisterFirmRev      = 0x6C
	RegisterFirmDM       = 0x6E
	RegisterFirmY        = 0x70
	RegisterProdID       = 0x72
	RegisterSerialNum    = 0x74
	RegisterUserScr1     = 0x76
	RegisterUserScr2     = 0x78
	RegisterUserScr3     = 0x7A
	RegisterFlshCntLow   = 0x7C
	RegisterFlshCntHigh  = 0x7E

	// Product ID Definitions
	ProductID1 = 16470
	ProductID2 = 16982

	// Scale Factor Definitions
	DeltaAngleLSB    = 2160.0 / 2147483648.0 // deg per LSB
	GyroLSBPerDPS    = 10.0
	AccelLSBPerG     = 800.0
	SampleRateMicros = 500.0 // nominal output period at 2 kHz
	DegToRad         = 0.0174532
	RadToDeg         = 57.2957795
	Gravity          = 9.81

	// Capture Definitions
	FrameWords            = 19
	CaptureBufferWords    = 8200
	TemplateTrailingZeros = 2

	// Setup Definitions
	DecRateNone           = 0x0000
	MscCtrlDataReadyHigh  = 0x0001
	FiltCtrlFourTaps      = 0x0002
	NullCnfgAllAxes       = 0x0700
	GlobCmdBiasCorrection = 0x0001
)
