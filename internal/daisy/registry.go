package daisy

// Vendor device type and model identifiers with known behaviors.
const (
	typeWhiteLight  = 21
	typeShadeCover  = 22
	typeRGBLight    = 23
	typeSlatCover   = 24
	typeWhiteLegacy = 25

	modelLevelLightGen1 = 17
	modelHeater         = 20
	modelSlatCover      = 27
	modelRGBLight       = 32
	modelLevelLightGen2 = 34
)

// typeModel is the behavior discriminator pair.
type typeModel struct {
	TypeID  int
	ModelID int
}

// factory constructs a concrete behavior around a resolved base device.
type factory func(base baseDevice) Device

// behaviorsByTypeModel maps exact (type, model) pairs to behaviors.
var behaviorsByTypeModel = map[typeModel]factory{
	{typeSlatCover, modelSlatCover}:       newSlatCover,
	{typeRGBLight, modelRGBLight}:         newRGBLight,
	{typeWhiteLight, modelLevelLightGen1}: newLevelLightGen1,
	{typeWhiteLight, modelLevelLightGen2}: newLevelLightGen2,
	{typeWhiteLight, modelHeater}:         newHeater,
}

func newLevelLightGen1(base baseDevice) Device { return newLevelLight(base, levelCommandsGen1) }
func newLevelLightGen2(base baseDevice) Device { return newLevelLight(base, levelCommandsGen2) }

// behaviorsByType maps device families whose legacy hardware reports a
// single model. Consulted only when the exact pair is unknown.
var behaviorsByType = map[int]factory{
	typeSlatCover:   newSlatCover,
	typeShadeCover:  newShadeCover,
	typeRGBLight:    newRGBLight,
	typeWhiteLight:  newWhiteLight,
	typeWhiteLegacy: newWhiteLight,
}

// resolve returns the behavior factory for a discriminator pair. The
// lookup is total: exact pair first, then type-only fallback, finally the
// generic refresh-only device. Unknown hardware degrades, it never errors.
func resolve(typeID, modelID int) factory {
	if f, ok := behaviorsByTypeModel[typeModel{typeID, modelID}]; ok {
		return f
	}
	if f, ok := behaviorsByType[typeID]; ok {
		return f
	}
	return newGenericDevice
}

// NewDevice resolves a device's behavior from its vendor identity and binds
// it to its installation and client. Used during room discovery; exported
// so callers holding raw identities can construct devices directly.
func NewDevice(info DeviceInfo, inst *Installation, client *Client) Device {
	base := baseDevice{info: info, inst: inst, client: client}
	return resolve(info.TypeID, info.ModelID)(base)
}
