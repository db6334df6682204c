package committee

import "relay-lab/contracts"

const Kind = "Committee"

const abiJSON = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_owner", "type": "address"},
			{"internalType": "address[]", "name": "_members", "type": "address[]"}
		],
		"stateMutability": "nonpayable",
		"type": "constructor"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
		],
		"name": "OwnershipTransferred",
		"type": "event"
	},
	{
		"inputs": [{"internalType": "address", "name": "", "type": "address"}],
		"name": "members",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address[]", "name": "_members", "type": "address[]"},
			{"internalType": "bool[]", "name": "_values", "type": "bool[]"}
		],
		"name": "setMembers",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "newOwner", "type": "address"}],
		"name": "transferOwnership",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var ABI = contracts.MustParseABI(abiJSON)
