package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "查看自己的余额",
		},
		{
			Name:         "gifts",
			Description:  "查看礼物列表",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "按名称筛选",
					Required:    false,
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
