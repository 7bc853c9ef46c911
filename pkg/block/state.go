// Package block describes the block state domain chunks are built from.
package block

import "fmt"

// State is a raw block state ID as sent on the wire.
type State uint16

const (
	Air          State = 0
	Stone        State = 1
	Granite      State = 2
	Diorite      State = 4
	Andesite     State = 6
	GrassBlock   State = 9
	Dirt         State = 10
	Cobblestone  State = 14
	OakPlanks    State = 15
	Bedrock      State = 79
	Water        State = 80
	Sand         State = 112
	Gravel       State = 118
	OakLog       State = 130
	Sponge       State = 513
	WetSponge    State = 514
	Glass        State = 519
	AcaciaWood   State = 198
	Chest        State = 2955
	Furnace      State = 4274
	OakSign      State = 4302
	Hopper       State = 8587
	EnderChest   State = 7515
	TrappedChest State = 8191
	Barrel       State = 17049
	VoidAir      State = 12817
	CaveAir      State = 12818
)

const maxState State = 24134

type stateInfo struct {
	name string
	kind EntityKind
	air  bool
}

var states = map[State]stateInfo{
	Air:          {name: "minecraft:air", kind: NoEntity, air: true},
	VoidAir:      {name: "minecraft:void_air", kind: NoEntity, air: true},
	CaveAir:      {name: "minecraft:cave_air", kind: NoEntity, air: true},
	Stone:        {name: "minecraft:stone", kind: NoEntity},
	Granite:      {name: "minecraft:granite", kind: NoEntity},
	Diorite:      {name: "minecraft:diorite", kind: NoEntity},
	Andesite:     {name: "minecraft:andesite", kind: NoEntity},
	GrassBlock:   {name: "minecraft:grass_block", kind: NoEntity},
	Dirt:         {name: "minecraft:dirt", kind: NoEntity},
	Cobblestone:  {name: "minecraft:cobblestone", kind: NoEntity},
	OakPlanks:    {name: "minecraft:oak_planks", kind: NoEntity},
	Bedrock:      {name: "minecraft:bedrock", kind: NoEntity},
	Water:        {name: "minecraft:water", kind: NoEntity},
	Sand:         {name: "minecraft:sand", kind: NoEntity},
	Gravel:       {name: "minecraft:gravel", kind: NoEntity},
	OakLog:       {name: "minecraft:oak_log", kind: NoEntity},
	AcaciaWood:   {name: "minecraft:acacia_wood", kind: NoEntity},
	Sponge:       {name: "minecraft:sponge", kind: NoEntity},
	WetSponge:    {name: "minecraft:wet_sponge", kind: NoEntity},
	Glass:        {name: "minecraft:glass", kind: NoEntity},
	Chest:        {name: "minecraft:chest", kind: EntityChest},
	TrappedChest: {name: "minecraft:trapped_chest", kind: EntityTrappedChest},
	EnderChest:   {name: "minecraft:ender_chest", kind: EntityEnderChest},
	Furnace:      {name: "minecraft:furnace", kind: EntityFurnace},
	OakSign:      {name: "minecraft:oak_sign", kind: EntitySign},
	Hopper:       {name: "minecraft:hopper", kind: EntityHopper},
	Barrel:       {name: "minecraft:barrel", kind: EntityBarrel},
}

// MaxRaw returns the highest valid raw state ID. It determines the width of
// directly encoded block state containers.
func MaxRaw() State {
	return maxState
}

// ToRaw returns the wire ID of s.
func (s State) ToRaw() uint32 {
	return uint32(s)
}

// IsAir reports whether s is one of the air states. Air states are not
// counted towards a section's non-air block count.
func (s State) IsAir() bool {
	return states[s].air
}

// BlockEntityKind returns the block entity kind carried by s, if any.
func (s State) BlockEntityKind() (EntityKind, bool) {
	info, ok := states[s]
	if !ok || info.kind == NoEntity {
		return NoEntity, false
	}
	return info.kind, true
}

// Name returns the namespaced block name of s.
func (s State) Name() string {
	if info, ok := states[s]; ok {
		return info.name
	}
	return fmt.Sprintf("state#%d", uint16(s))
}

func (s State) String() string {
	return s.Name()
}
