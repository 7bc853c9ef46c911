package block

// EntityKind is a block entity type ID from the block entity registry.
type EntityKind int32

// NoEntity marks a state that carries no block entity.
const NoEntity EntityKind = -1

const (
	EntityFurnace      EntityKind = 0
	EntityChest        EntityKind = 1
	EntityTrappedChest EntityKind = 2
	EntityEnderChest   EntityKind = 3
	EntitySign         EntityKind = 7
	EntityHopper       EntityKind = 17
	EntityBarrel       EntityKind = 26
)

var entityNames = map[EntityKind]string{
	EntityFurnace:      "minecraft:furnace",
	EntityChest:        "minecraft:chest",
	EntityTrappedChest: "minecraft:trapped_chest",
	EntityEnderChest:   "minecraft:ender_chest",
	EntitySign:         "minecraft:sign",
	EntityHopper:       "minecraft:hopper",
	EntityBarrel:       "minecraft:barrel",
}

func (k EntityKind) String() string {
	if name, ok := entityNames[k]; ok {
		return name
	}
	return "none"
}
